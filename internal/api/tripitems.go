package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/workflow"
)

// TripItemsHandler handles the items of a trip and their status workflow.
type TripItemsHandler struct {
	deps
}

type addTripItemRequest struct {
	ItemID string `json:"item_id" validate:"max=100"`
	QRCode string `json:"qr_code_id" validate:"max=100"`
	Notes  string `json:"notes" validate:"max=5000"`
}

type resolveRequest struct {
	Status string `json:"status"`
	QRCode string `json:"qr_code_id" validate:"max=100"`
	Notes  string `json:"notes" validate:"max=5000"`
}

type tripItemResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	TripItem *model.TripItem `json:"trip_item"`
}

var errInvalidItemStatus = apperr.Validation(apperr.CodeInvalidStatus,
	"Status must be one of: taken, returned, lost, not_found")

// List handles GET /api/v1/trips/{id}/items.
func (h *TripItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("id")
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidTripItemStatus(status) {
		h.fail(w, errInvalidItemStatus)
		return
	}

	trip, err := store.GetTrip(r.Context(), h.DB, tripID)
	if err != nil {
		h.fail(w, err)
		return
	}
	if trip == nil {
		h.fail(w, apperr.ErrTripNotFound)
		return
	}

	items, err := store.ListTripItems(r.Context(), h.DB, tripID, status)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"trip_items": items,
		"count":      len(items),
	})
}

// Add handles POST /api/v1/trips/{id}/items.
func (h *TripItemsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addTripItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.QRCode = strings.TrimSpace(req.QRCode)
	req.Notes = strings.TrimSpace(req.Notes)
	if !h.validate(w, req) {
		return
	}

	p := PrincipalFrom(r.Context())
	ti, err := store.AddTripItem(r.Context(), h.DB, p, r.PathValue("id"), store.AddTripItemInput{
		ItemID: req.ItemID,
		QRCode: req.QRCode,
		Notes:  req.Notes,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Metrics.TripItemAdded()
	slog.Info("trip item added", "trip", ti.TripID, "item", ti.ItemID, "by", p.Name)
	jsonResponse(w, http.StatusCreated, tripItemResponse{
		Success:  true,
		Message:  fmt.Sprintf("Item %q added to trip", itemName(ti)),
		TripItem: ti,
	})
}

// Return handles PUT /api/v1/trips/{id}/items/{item_id}/return. The body
// names the target status; returned requires the scanned QR code.
func (h *TripItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	h.resolve(w, r, req)
}

// MarkLost handles PUT /api/v1/trips/{id}/items/{item_id}/lost.
func (h *TripItemsHandler) MarkLost(w http.ResponseWriter, r *http.Request) {
	h.resolveFixed(w, r, model.TripItemLost)
}

// MarkNotFound handles PUT /api/v1/trips/{id}/items/{item_id}/not-found.
func (h *TripItemsHandler) MarkNotFound(w http.ResponseWriter, r *http.Request) {
	h.resolveFixed(w, r, model.TripItemNotFound)
}

func (h *TripItemsHandler) resolveFixed(w http.ResponseWriter, r *http.Request, status string) {
	var req resolveRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Status = status
	h.resolve(w, r, req)
}

func (h *TripItemsHandler) resolve(w http.ResponseWriter, r *http.Request, req resolveRequest) {
	req.Status = strings.TrimSpace(req.Status)
	req.QRCode = strings.TrimSpace(req.QRCode)
	req.Notes = strings.TrimSpace(req.Notes)
	if !h.validate(w, req) {
		return
	}

	p := PrincipalFrom(r.Context())
	ti, from, err := store.ResolveTripItem(r.Context(), h.DB, p, r.PathValue("id"), r.PathValue("item_id"), workflow.Request{
		Status: req.Status,
		QRCode: req.QRCode,
		Notes:  req.Notes,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Metrics.TripItemTransition(from, ti.Status)
	slog.Info("trip item resolved", "trip", ti.TripID, "item", ti.ItemID,
		"from", from, "to", ti.Status, "by", p.Name)
	jsonResponse(w, http.StatusOK, tripItemResponse{
		Success:  true,
		Message:  fmt.Sprintf("Item %q marked as %s", itemName(ti), strings.ReplaceAll(ti.Status, "_", " ")),
		TripItem: ti,
	})
}

// Remove handles DELETE /api/v1/trips/{id}/items/{item_id}.
func (h *TripItemsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	ti, err := store.RemoveTripItem(r.Context(), h.DB, p, r.PathValue("id"), r.PathValue("item_id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("trip item removed", "trip", ti.TripID, "item", ti.ItemID, "by", p.Name)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Item %q removed from trip", itemName(ti)),
	})
}

func itemName(ti *model.TripItem) string {
	if ti.Item == nil {
		return ti.ItemID
	}
	return ti.Item.Name
}
