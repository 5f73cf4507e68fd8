package model

import "time"

// TripItem records the checkout state of one item on one trip.
type TripItem struct {
	ID                string     `json:"id"`
	TripID            string     `json:"trip_id"`
	ItemID            string     `json:"item_id"`
	Status            string     `json:"status"`
	AddedAt           time.Time  `json:"added_at"`
	AddedBy           *string    `json:"added_by"`
	ReturnedAt        *time.Time `json:"returned_at"`
	ReturnedBy        *string    `json:"returned_by"`
	NotesWhenAdded    string     `json:"notes_when_added,omitempty"`
	NotesWhenReturned string     `json:"notes_when_returned,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	Item     *TripItemItem `json:"item,omitempty"`
	Adder    *UserRef      `json:"adder,omitempty"`
	Returner *UserRef      `json:"returner,omitempty"`
}

// TripItemItem is the item as embedded in a trip item.
type TripItemItem struct {
	ID           string `json:"id"`
	QRCode       string `json:"qr_code_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PrimaryImage string `json:"primary_image_url,omitempty"`
}

// Trip item statuses.
const (
	TripItemTaken    = "taken"
	TripItemReturned = "returned"
	TripItemLost     = "lost"
	TripItemNotFound = "not_found"
)

// ValidTripItemStatus reports whether s is a known trip item status.
func ValidTripItemStatus(s string) bool {
	switch s {
	case TripItemTaken, TripItemReturned, TripItemLost, TripItemNotFound:
		return true
	}
	return false
}

// TripStatistics is the derived summary of a trip's items.
type TripStatistics struct {
	TotalItems       int `json:"total_items"`
	ReturnedItems    int `json:"returned_items"`
	LostItems        int `json:"lost_items"`
	PendingItems     int `json:"pending_items"`
	ReturnPercentage int `json:"return_percentage"`
}

// ItemCounts is the compact summary shown in trip listings.
type ItemCounts struct {
	Total    int `json:"total"`
	Returned int `json:"returned"`
	Lost     int `json:"lost"`
	Pending  int `json:"pending"`
}

// Counts returns the listing form of the statistics.
func (s TripStatistics) Counts() ItemCounts {
	return ItemCounts{
		Total:    s.TotalItems,
		Returned: s.ReturnedItems,
		Lost:     s.LostItems,
		Pending:  s.PendingItems,
	}
}
