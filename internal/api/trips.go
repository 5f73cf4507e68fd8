package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/workflow"
)

// TripsHandler handles trip endpoints.
type TripsHandler struct {
	deps
}

type createTripRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
	Location  string `json:"location" validate:"max=255"`
	Notes     string `json:"notes" validate:"max=5000"`
}

type updateTripRequest struct {
	Name      *string `json:"name" validate:"omitnil,min=2,max=255"`
	StartDate *string `json:"start_date" validate:"omitnil,date"`
	EndDate   *string `json:"end_date" validate:"omitnil,date"`
	Location  *string `json:"location" validate:"omitnil,max=255"`
	Notes     *string `json:"notes" validate:"omitnil,max=5000"`
}

type tripDetail struct {
	*model.Trip
	TripItems  []model.TripItem     `json:"trip_items"`
	Statistics model.TripStatistics `json:"statistics"`
}

type closedTrip struct {
	*model.Trip
	FinalStatistics model.TripStatistics `json:"final_statistics"`
}

var errInvalidTripStatus = apperr.Validation(apperr.CodeInvalidStatus, "Status must be one of: open, closed")

// List handles GET /api/v1/trips.
func (h *TripsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && status != model.TripStatusOpen && status != model.TripStatusClosed {
		h.fail(w, errInvalidTripStatus)
		return
	}

	trips, pagination, err := store.ListTrips(r.Context(), h.DB, store.TripFilter{
		Status:   status,
		Location: strings.TrimSpace(q.Get("location")),
		Page:     page,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"trips":      trips,
		"pagination": pagination,
	})
}

// Create handles POST /api/v1/trips.
func (h *TripsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Notes = strings.TrimSpace(req.Notes)
	if !h.validate(w, req) {
		return
	}

	p := PrincipalFrom(r.Context())
	trip, err := store.CreateTrip(r.Context(), h.DB, store.TripInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Location:  req.Location,
		Notes:     req.Notes,
	}, p.ActorID())
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("trip created", "trip", trip.ID, "name", trip.Name, "by", p.Name)
	jsonResponse(w, http.StatusCreated, trip)
}

// Get handles GET /api/v1/trips/{id}. Statistics are derived from the
// trip items on every read.
func (h *TripsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	trip, err := store.GetTrip(r.Context(), h.DB, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if trip == nil {
		h.fail(w, apperr.ErrTripNotFound)
		return
	}

	items, err := store.ListTripItems(r.Context(), h.DB, id, "")
	if err != nil {
		h.fail(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, tripDetail{
		Trip:       trip,
		TripItems:  items,
		Statistics: workflow.SummarizeItems(items),
	})
}

// Update handles PUT /api/v1/trips/{id}.
func (h *TripsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTripRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Name = trimPtr(req.Name)
	req.Location = trimPtr(req.Location)
	req.Notes = trimPtr(req.Notes)
	if !h.validate(w, req) {
		return
	}

	trip, err := store.UpdateTrip(r.Context(), h.DB, PrincipalFrom(r.Context()), r.PathValue("id"), store.TripUpdate{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, trip)
}

// Delete handles DELETE /api/v1/trips/{id}.
func (h *TripsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := PrincipalFrom(r.Context())
	removed, err := store.DeleteTrip(r.Context(), h.DB, p, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("trip deleted", "trip", id, "trip_items", removed, "by", p.Name)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success":                  true,
		"message":                  "Trip deleted successfully",
		"deleted_trip_id":          id,
		"deleted_trip_items_count": removed,
	})
}

// Close handles POST /api/v1/trips/{id}/close.
func (h *TripsHandler) Close(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	trip, stats, err := store.CloseTrip(r.Context(), h.DB, p, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Metrics.TripClosed()
	slog.Info("trip closed", "trip", trip.ID, "total", stats.TotalItems,
		"returned", stats.ReturnedItems, "lost", stats.LostItems, "by", p.Name)
	jsonResponse(w, http.StatusOK, closedTrip{Trip: trip, FinalStatistics: stats})
}
