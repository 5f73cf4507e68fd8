package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/media"
	"github.com/erazemk/oprema/internal/metrics"
	"github.com/erazemk/oprema/internal/ratelimit"
	"github.com/erazemk/oprema/internal/validation"
)

// Options configures the router.
type Options struct {
	DB            *sql.DB
	JWTSecret     string
	SuperAdminPIN string
	TokenTTL      time.Duration

	// Media stores uploaded images; MediaHandler serves them under
	// MediaPrefix. A nil MediaHandler disables the file route.
	Media        media.Store
	MediaPrefix  string
	MediaHandler http.Handler

	Metrics      *metrics.Metrics
	LoginLimiter *ratelimit.KeyedRateLimiter
	CORSOrigins  []string

	// ExposeErrors adds internal error messages to SERVER_ERROR responses.
	ExposeErrors bool
}

// deps are shared by every handler.
type deps struct {
	DB       *sql.DB
	Validate *validation.Validator
	Metrics  *metrics.Metrics
	Expose   bool
}

func (d *deps) fail(w http.ResponseWriter, err error) {
	writeError(w, err, d.Expose)
}

// validate validates a decoded request body.
func (d *deps) validate(w http.ResponseWriter, req any) bool {
	if err := d.Validate.Validate(req); err != nil {
		d.fail(w, err)
		return false
	}
	return true
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	d := deps{
		DB:       opts.DB,
		Validate: validation.New(),
		Metrics:  opts.Metrics,
		Expose:   opts.ExposeErrors,
	}

	authHandler := &AuthHandler{deps: d, JWTSecret: opts.JWTSecret, SuperAdminPIN: opts.SuperAdminPIN, TokenTTL: opts.TokenTTL}
	usersHandler := &UsersHandler{deps: d}
	categoriesHandler := &CategoriesHandler{deps: d}
	itemsHandler := &ItemsHandler{deps: d, Media: opts.Media}
	tripsHandler := &TripsHandler{deps: d}
	tripItemsHandler := &TripItemsHandler{deps: d}
	healthHandler := &HealthHandler{DB: opts.DB}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	loginLimit := RateLimitMiddleware(opts.LoginLimiter)
	guarded := func(a auth.Action, h http.HandlerFunc) http.Handler {
		return authMW(RequireAction(a)(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	const v1 = "/api/v1"

	// Public.
	mux.Handle("POST "+v1+"/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /healthz", healthHandler.Check)

	// Session.
	mux.Handle("POST "+v1+"/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET "+v1+"/auth/me", authed(authHandler.Me))

	// Users (admin only).
	mux.Handle("GET "+v1+"/auth/users", guarded(auth.ActionManageUsers, usersHandler.List))
	mux.Handle("POST "+v1+"/auth/users", guarded(auth.ActionManageUsers, usersHandler.Create))
	mux.Handle("GET "+v1+"/auth/users/{id}", guarded(auth.ActionManageUsers, usersHandler.Get))
	mux.Handle("PUT "+v1+"/auth/users/{id}", guarded(auth.ActionManageUsers, usersHandler.Update))
	mux.Handle("DELETE "+v1+"/auth/users/{id}", guarded(auth.ActionManageUsers, usersHandler.Delete))

	// Categories: write (all roles), delete (admin).
	mux.Handle("GET "+v1+"/categories", authed(categoriesHandler.List))
	mux.Handle("POST "+v1+"/categories", guarded(auth.ActionManageCatalog, categoriesHandler.Create))
	mux.Handle("GET "+v1+"/categories/{id}", authed(categoriesHandler.Get))
	mux.Handle("PUT "+v1+"/categories/{id}", guarded(auth.ActionManageCatalog, categoriesHandler.Update))
	mux.Handle("DELETE "+v1+"/categories/{id}", guarded(auth.ActionDeleteCatalog, categoriesHandler.Delete))

	// Items and images: write (all roles), delete item (admin).
	mux.Handle("GET "+v1+"/items", authed(itemsHandler.List))
	mux.Handle("POST "+v1+"/items", guarded(auth.ActionManageCatalog, itemsHandler.Create))
	mux.Handle("GET "+v1+"/items/{ref}", authed(itemsHandler.Get))
	mux.Handle("PUT "+v1+"/items/{id}", guarded(auth.ActionManageCatalog, itemsHandler.Update))
	mux.Handle("DELETE "+v1+"/items/{id}", guarded(auth.ActionDeleteCatalog, itemsHandler.Delete))
	mux.Handle("POST "+v1+"/items/{id}/images", guarded(auth.ActionManageCatalog, itemsHandler.UploadImages))
	mux.Handle("DELETE "+v1+"/items/images/{id}", guarded(auth.ActionManageCatalog, itemsHandler.DeleteImage))

	// Trips. Ownership rules are checked against the stored trip.
	mux.Handle("GET "+v1+"/trips", authed(tripsHandler.List))
	mux.Handle("POST "+v1+"/trips", guarded(auth.ActionCreateTrip, tripsHandler.Create))
	mux.Handle("GET "+v1+"/trips/{id}", authed(tripsHandler.Get))
	mux.Handle("PUT "+v1+"/trips/{id}", authed(tripsHandler.Update))
	mux.Handle("DELETE "+v1+"/trips/{id}", authed(tripsHandler.Delete))
	mux.Handle("POST "+v1+"/trips/{id}/close", authed(tripsHandler.Close))

	// Trip items.
	mux.Handle("GET "+v1+"/trips/{id}/items", authed(tripItemsHandler.List))
	mux.Handle("POST "+v1+"/trips/{id}/items", authed(tripItemsHandler.Add))
	mux.Handle("PUT "+v1+"/trips/{id}/items/{item_id}/return", authed(tripItemsHandler.Return))
	mux.Handle("PUT "+v1+"/trips/{id}/items/{item_id}/lost", authed(tripItemsHandler.MarkLost))
	mux.Handle("PUT "+v1+"/trips/{id}/items/{item_id}/not-found", authed(tripItemsHandler.MarkNotFound))
	mux.Handle("DELETE "+v1+"/trips/{id}/items/{item_id}", authed(tripItemsHandler.Remove))

	mux.HandleFunc(v1+"/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apperr.NotFound(apperr.CodeNotFound, "Route not found"), false)
	})

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	if opts.MediaHandler != nil {
		mux.Handle("GET "+opts.MediaPrefix+"/", opts.MediaHandler)
	}

	corsMW := cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})

	return opts.Metrics.Middleware(LoggingMiddleware(corsMW(mux)))
}
