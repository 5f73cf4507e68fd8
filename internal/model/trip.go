package model

import (
	"fmt"
	"time"
)

// Trip is a bounded-duration outing that gear is checked out to.
type Trip struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	Creator *UserRef `json:"creator,omitempty"`
}

// Trip statuses.
const (
	TripStatusOpen   = "open"
	TripStatusClosed = "closed"
)

// DateLayout is the wire and storage format of trip dates.
const DateLayout = "2006-01-02"

// IsOpen reports whether items can still be added to or removed from the trip.
func (t *Trip) IsOpen() bool {
	return t.Status == TripStatusOpen
}

// CheckDateRange parses both dates and verifies start is not after end.
func CheckDateRange(start, end string) (bool, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return false, fmt.Errorf("invalid start_date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return false, fmt.Errorf("invalid end_date %q: %w", end, err)
	}
	return !s.After(e), nil
}
