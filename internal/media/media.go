// Package media stores processed item images and maps them to public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists image files.
type Store interface {
	// Save writes data and returns the public URL of the stored file.
	Save(ctx context.Context, data []byte, ext string) (string, error)
	// Delete removes the file behind a URL returned by Save.
	Delete(ctx context.Context, url string) error
}

// ErrForeignURL is returned when deleting a URL the store did not issue.
var ErrForeignURL = errors.New("url not served by this store")

// LocalStore keeps files in a directory served under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &LocalStore{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Save writes data under a random name.
func (s *LocalStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}

	return path.Join(s.URLPrefix, name), nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	name, ok := s.fileName(url)
	if !ok {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

func (s *LocalStore) fileName(url string) (string, bool) {
	prefix := s.URLPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}

// Handler serves stored files under URLPrefix.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix(s.URLPrefix+"/", http.FileServer(noListing{http.Dir(s.Dir)}))
}

// noListing hides directory indexes and temp files.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	if strings.HasPrefix(path.Base(name), ".") {
		return nil, os.ErrNotExist
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
