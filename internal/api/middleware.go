package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/ratelimit"
	"github.com/erazemk/oprema/internal/store"
)

type contextKey string

const (
	claimsKey    contextKey = "claims"
	principalKey contextKey = "principal"
)

var (
	errTokenRequired = apperr.Unauthenticated(apperr.CodeAuthRequired, "Access token required")
	errInvalidToken  = apperr.Unauthenticated(apperr.CodeInvalidToken, "Invalid or expired token")
	errTokenRevoked  = apperr.Unauthenticated(apperr.CodeInvalidToken, "Token has been revoked")
	errUserInactive  = apperr.Unauthenticated(apperr.CodeInvalidToken, "User not found or inactive")
	errRateLimited   = apperr.New(apperr.KindRateLimited, apperr.CodeRateLimited, "Too many login attempts. Please try again later.")
)

// AuthMiddleware validates the bearer token, checks it was not revoked and
// re-derives the principal. Regular users are re-read from storage on every
// request so role changes and deactivation apply immediately.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, errTokenRequired, false)
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := auth.ValidateToken(secret, tokenStr)
			if err != nil {
				writeError(w, errInvalidToken, false)
				return
			}

			if claims.ID != "" {
				revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
				if err != nil {
					writeError(w, err, false)
					return
				}
				if revoked {
					writeError(w, errTokenRevoked, false)
					return
				}
			}

			var p *model.Principal
			if claims.IsSuperAdmin() {
				p = model.SuperAdmin()
			} else {
				user, err := store.GetUser(r.Context(), db, claims.UserID)
				if err != nil {
					writeError(w, err, false)
					return
				}
				if user == nil || user.DeletedAt != nil || !user.IsActive {
					writeError(w, errUserInactive, false)
					return
				}
				p = model.PrincipalFromUser(user)
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAction returns middleware that authorizes an action that does not
// depend on a particular resource.
func RequireAction(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Authorize(PrincipalFrom(r.Context()), action, auth.Resource{}); err != nil {
				writeError(w, err, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits requests per client address.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ratelimit.ClientIP(r)
			if !limiter.Allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeError(w, errRateLimited, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFrom returns the authenticated principal, or nil.
func PrincipalFrom(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey).(*model.Principal)
	return p
}

// ClaimsFrom retrieves the JWT claims from the context.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
