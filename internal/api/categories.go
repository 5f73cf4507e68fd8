package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	deps
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100,categoryname"`
	Description string `json:"description" validate:"max=500"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=2,max=100,categoryname"`
	Description *string `json:"description" validate:"omitnil,max=500"`
}

// List handles GET /api/v1/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"categories": categories,
		"total":      len(categories),
	})
}

// Create handles POST /api/v1/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if !h.validate(w, req) {
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.Description)
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("category created", "name", category.Name)
	jsonResponse(w, http.StatusCreated, category)
}

// Get handles GET /api/v1/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := store.GetCategory(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if category == nil {
		h.fail(w, apperr.ErrCategoryNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// Update handles PUT /api/v1/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
	if !h.validate(w, req) {
		return
	}

	category, err := store.UpdateCategory(r.Context(), h.DB, r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		h.fail(w, err)
		return
	}
	if category == nil {
		h.fail(w, apperr.ErrCategoryNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// Delete handles DELETE /api/v1/categories/{id}.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteCategory(r.Context(), h.DB, id); err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("category deleted", "id", id, "by", PrincipalFrom(r.Context()).Name)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":             "Category deleted successfully",
		"deleted_category_id": id,
	})
}

// trimPtr trims a string behind a pointer, keeping nil as nil.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
