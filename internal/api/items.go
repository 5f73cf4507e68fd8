package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/media"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// MaxImagesPerUpload bounds the number of files in one upload request.
const MaxImagesPerUpload = 10

// ItemsHandler handles item and item image endpoints.
type ItemsHandler struct {
	deps
	Media media.Store
}

type createItemRequest struct {
	QRCode      string   `json:"qr_code_id" validate:"required,min=3,max=100,qrcode"`
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"max=5000"`
	CategoryIDs []string `json:"category_ids" validate:"omitempty,dive,required"`
}

type updateItemRequest struct {
	Name        *string   `json:"name" validate:"omitnil,min=2,max=255"`
	Description *string   `json:"description" validate:"omitnil,max=5000"`
	CategoryIDs *[]string `json:"category_ids" validate:"omitnil,dive,required"`
}

type uploadError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Message string            `json:"message"`
	Images  []model.ItemImage `json:"images"`
	Errors  []uploadError     `json:"errors,omitempty"`
}

// List handles GET /api/v1/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	items, pagination, err := store.ListItems(r.Context(), h.DB, r.URL.Query().Get("search"), page)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": pagination,
	})
}

// Get handles GET /api/v1/items/{ref}. The reference is tried as a QR code
// first, then as an item ID.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	item, err := store.GetItemByQR(r.Context(), h.DB, ref)
	if err == nil && item == nil {
		item, err = store.GetItem(r.Context(), h.DB, ref)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	if item == nil {
		h.fail(w, apperr.ErrItemNotFound.WithDetails(map[string]string{"qr_code_id": ref}))
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/v1/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.QRCode = strings.TrimSpace(req.QRCode)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if !h.validate(w, req) {
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, store.ItemInput{
		QRCode:      req.QRCode,
		Name:        req.Name,
		Description: req.Description,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("item created", "qr_code_id", item.QRCode, "name", item.Name)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/v1/items/{id}. The QR code cannot be changed.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
	if !h.validate(w, req) {
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, r.PathValue("id"), store.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/items/{id}. Stored files are removed after
// the rows; a file that cannot be removed is only logged.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	images, err := store.DeleteItem(r.Context(), h.DB, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	for _, img := range images {
		h.removeFile(r.Context(), img.URL)
	}

	slog.Info("item deleted", "id", id, "images", len(images), "by", PrincipalFrom(r.Context()).Name)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":              "Item deleted successfully",
		"deleted_item_id":      id,
		"deleted_images_count": len(images),
	})
}

// UploadImages handles POST /api/v1/items/{id}/images. Every file in the
// "images" field is processed independently; failures are collected and
// reported next to the stored images.
func (h *ItemsHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if item == nil {
		h.fail(w, apperr.ErrItemNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImagesPerUpload*imaging.MaxInputBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.fail(w, apperr.Validation(apperr.CodeValidation, "Upload too large or invalid multipart form").WithCause(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		h.fail(w, apperr.Validation(apperr.CodeValidation, "No files uploaded"))
		return
	}
	if len(files) > MaxImagesPerUpload {
		h.fail(w, apperr.Newf(apperr.KindValidation, apperr.CodeValidation,
			"Too many files. Maximum %d images allowed per upload", MaxImagesPerUpload))
		return
	}
	isPrimary := r.FormValue("is_primary") == "true"

	images := []model.ItemImage{}
	var failures []uploadError
	for i, fh := range files {
		img, err := h.storeImage(r.Context(), item.ID, fh, isPrimary && i == 0)
		if err != nil {
			slog.Warn("image upload failed", "item", item.ID, "file", fh.Filename, "error", err)
			failures = append(failures, uploadError{File: fh.Filename, Error: uploadErrorMessage(err)})
			continue
		}
		images = append(images, *img)
	}

	if len(images) == 0 {
		h.fail(w, apperr.Validation(apperr.CodeValidation, "No images were uploaded successfully").WithDetails(failures))
		return
	}

	slog.Info("images uploaded", "item", item.ID, "count", len(images), "failed", len(failures))
	jsonResponse(w, http.StatusCreated, uploadResponse{
		Message: fmt.Sprintf("%d image(s) uploaded successfully", len(images)),
		Images:  images,
		Errors:  failures,
	})
}

// storeImage processes one upload, writes the file and records the row.
// Processing and the file write happen before the database insert.
func (h *ItemsHandler) storeImage(ctx context.Context, itemID string, fh *multipart.FileHeader, primary bool) (*model.ItemImage, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	res, err := imaging.Process(f)
	if err != nil {
		return nil, err
	}

	url, err := h.Media.Save(ctx, res.Data, "jpg")
	if err != nil {
		return nil, err
	}

	img, err := store.AddItemImage(ctx, h.DB, itemID, url, primary)
	if err != nil {
		h.removeFile(ctx, url)
		return nil, err
	}
	return img, nil
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		return "Not a supported image file"
	case errors.Is(err, imaging.ErrTooLarge):
		return fmt.Sprintf("File exceeds %d MB", imaging.MaxInputBytes>>20)
	default:
		return "Failed to process image"
	}
}

// DeleteImage handles DELETE /api/v1/items/images/{id}.
func (h *ItemsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	img, err := store.DeleteItemImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.removeFile(r.Context(), img.URL)

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":          "Image deleted successfully",
		"deleted_image_id": img.ID,
	})
}

// removeFile deletes a stored image, logging instead of failing.
func (h *ItemsHandler) removeFile(ctx context.Context, url string) {
	if h.Media == nil {
		return
	}
	if err := h.Media.Delete(ctx, url); err != nil {
		slog.Warn("removing stored image", "url", url, "error", err)
	}
}
