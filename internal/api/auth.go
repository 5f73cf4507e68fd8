package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	deps
	JWTSecret     string
	SuperAdminPIN string
	TokenTTL      time.Duration
}

type loginRequest struct {
	PIN string `json:"pin"`
}

type loginResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    *model.Principal `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	listActive := func(ctx context.Context) ([]model.User, error) {
		return store.ListActiveUsers(ctx, h.DB)
	}
	p, err := auth.Authenticate(r.Context(), listActive, h.SuperAdminPIN, req.PIN)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			h.Metrics.LoginFailed(appErr.Code)
			slog.Warn("login failed", "code", appErr.Code, "remote", r.RemoteAddr)
		}
		h.fail(w, err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, p, h.TokenTTL)
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("user logged in", "user", p.Name, "role", p.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Success: true, Token: token, User: p})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	if claims == nil {
		h.fail(w, errTokenRequired)
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			h.fail(w, err)
			return
		}
	}

	slog.Info("user logged out", "user", claims.Name)
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"user": PrincipalFrom(r.Context())})
}
