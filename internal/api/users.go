package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	deps
}

type createUserRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	PIN  string `json:"pin" validate:"required,pin"`
	Role string `json:"role" validate:"omitempty,oneof=admin user"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=2,max=100"`
	PIN      *string `json:"pin" validate:"omitnil,pin"`
	Role     *string `json:"role" validate:"omitnil,oneof=admin user"`
	IsActive *bool   `json:"is_active"`
}

type userResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

var errDeleteSelf = apperr.Validation(apperr.CodeValidation, "Cannot delete your own account")

// List handles GET /api/v1/auth/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		h.fail(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
		"total":   len(users),
	})
}

// Create handles POST /api/v1/auth/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if !h.validate(w, req) {
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := auth.HashPIN(req.PIN)
	if err != nil {
		h.fail(w, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Name, hash, req.Role)
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("user created", "user", user.Name, "role", user.Role, "by", PrincipalFrom(r.Context()).Name)
	jsonResponse(w, http.StatusCreated, userResponse{Success: true, User: user})
}

// Get handles GET /api/v1/auth/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		h.fail(w, apperr.ErrUserNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, userResponse{Success: true, User: user})
}

// Update handles PUT /api/v1/auth/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = trimPtr(req.Name)
	if !h.validate(w, req) {
		return
	}

	upd := store.UserUpdate{Name: req.Name, Role: req.Role, IsActive: req.IsActive}
	if req.PIN != nil {
		hash, err := auth.HashPIN(*req.PIN)
		if err != nil {
			h.fail(w, err)
			return
		}
		upd.PINHash = &hash
	}

	user, err := store.UpdateUser(r.Context(), h.DB, r.PathValue("id"), upd)
	if err != nil {
		h.fail(w, err)
		return
	}
	if user == nil {
		h.fail(w, apperr.ErrUserNotFound)
		return
	}

	slog.Info("user updated", "user", user.Name, "by", PrincipalFrom(r.Context()).Name)
	jsonResponse(w, http.StatusOK, userResponse{Success: true, User: user})
}

// Delete handles DELETE /api/v1/auth/users/{id}. Users are soft-deleted so
// trips and trip items keep their attribution.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := PrincipalFrom(r.Context())
	if id == p.ID {
		h.fail(w, errDeleteSelf)
		return
	}

	deleted, err := store.DeleteUser(r.Context(), h.DB, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !deleted {
		h.fail(w, apperr.ErrUserNotFound)
		return
	}

	slog.Info("user deleted", "id", id, "by", p.Name)
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": "User deleted successfully"})
}
