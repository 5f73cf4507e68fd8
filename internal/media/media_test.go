package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "media"), "media/")
	require.NoError(t, err)
	return s
}

func TestSaveAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	url, err := s.Save(ctx, []byte("jpeg bytes"), ".jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	name := strings.TrimPrefix(url, "/media/")
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(s.Dir, name))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Deleting again is fine.
	assert.NoError(t, s.Delete(ctx, url))
}

func TestDeleteForeignURL(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, url := range []string{
		"https://res.cloudinary.com/demo/image/upload/camping-gear/x.jpg",
		"/media/../secret",
		"/media/",
		"/other/x.jpg",
	} {
		err := s.Delete(ctx, url)
		assert.ErrorIs(t, err, ErrForeignURL, url)
	}
}

func TestHandler(t *testing.T) {
	s := newStore(t)
	url, err := s.Save(context.Background(), []byte("img"), "jpg")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("GET /media/", s.Handler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "img", string(body))

	resp, err = http.Get(srv.URL + "/media/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
