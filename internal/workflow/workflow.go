// Package workflow implements the trip item status machine.
//
// A trip item starts as taken. Returned and lost are terminal; not_found
// may still be returned once the item is scanned back in:
//
//	taken     -> returned | lost | not_found
//	not_found -> returned
//
// Resolution runs in two phases. Precheck validates the request before
// anything is loaded. Check validates it against the stored trip item and
// Apply records the transition.
package workflow

import (
	"slices"
	"time"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
)

var transitions = map[string][]string{
	model.TripItemTaken:    {model.TripItemReturned, model.TripItemLost, model.TripItemNotFound},
	model.TripItemNotFound: {model.TripItemReturned},
}

// CanTransition reports whether a trip item may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// Request is a requested resolution of a trip item.
type Request struct {
	Status string
	// QRCode is the scanned code; empty when the caller did not scan.
	QRCode string
	Notes  string
}

// TransitionDetails are attached to INVALID_STATUS_TRANSITION errors.
type TransitionDetails struct {
	CurrentStatus   string `json:"current_status"`
	RequestedStatus string `json:"requested_status"`
}

// Precheck validates a request before the trip item is loaded.
func Precheck(p *model.Principal, req Request) error {
	switch req.Status {
	case model.TripItemReturned, model.TripItemLost, model.TripItemNotFound:
	default:
		return apperr.Validation(apperr.CodeInvalidStatus,
			"Status must be one of: returned, lost, not_found")
	}

	switch req.Status {
	case model.TripItemReturned:
		if req.QRCode == "" {
			return apperr.ErrQRCodeRequired
		}
	case model.TripItemLost:
		if err := auth.Authorize(p, auth.ActionMarkLost, auth.Resource{}); err != nil {
			return err
		}
	case model.TripItemNotFound:
		if err := auth.Authorize(p, auth.ActionMarkNotFound, auth.Resource{}); err != nil {
			return err
		}
	}
	return nil
}

// Check validates a request against the stored trip item. ti is nil when
// the item is not part of the trip; itemQR is the item's stored QR code.
func Check(ti *model.TripItem, itemQR string, req Request) error {
	if ti == nil {
		return apperr.ErrItemNotInTrip
	}

	if req.QRCode != "" && req.QRCode != itemQR {
		return apperr.ErrQRCodeMismatch
	}

	if !CanTransition(ti.Status, req.Status) {
		return apperr.Newf(apperr.KindInvalidTransition, apperr.CodeInvalidStatusTransition,
			"Cannot change status from %s to %s", ti.Status, req.Status).
			WithDetails(TransitionDetails{CurrentStatus: ti.Status, RequestedStatus: req.Status})
	}
	return nil
}

// Apply records a checked transition on ti.
func Apply(ti *model.TripItem, p *model.Principal, req Request, now time.Time) {
	ti.Status = req.Status
	if req.Notes != "" {
		ti.NotesWhenReturned = req.Notes
	}
	if req.Status == model.TripItemReturned {
		ti.ReturnedAt = &now
		ti.ReturnedBy = p.ActorID()
	}
	ti.UpdatedAt = now
}

// Resolve runs Precheck, Check and Apply in order.
func Resolve(ti *model.TripItem, itemQR string, p *model.Principal, req Request, now time.Time) error {
	if err := Precheck(p, req); err != nil {
		return err
	}
	if err := Check(ti, itemQR, req); err != nil {
		return err
	}
	Apply(ti, p, req, now)
	return nil
}
