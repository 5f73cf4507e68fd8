package model

import "time"

// Item is a single piece of gear identified by its QR code.
type Item struct {
	ID          string      `json:"id"`
	QRCode      string      `json:"qr_code_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Images      []ItemImage `json:"images"`
	Categories  []Category  `json:"categories"`
}

// ItemRef is the compact item representation returned in conflicts.
type ItemRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	QRCode string `json:"qr_code_id"`
}

// Ref returns the compact representation of the item.
func (i *Item) Ref() ItemRef {
	return ItemRef{ID: i.ID, Name: i.Name, QRCode: i.QRCode}
}

// ItemImage is a stored photo of an item. More than one image per item
// may carry IsPrimary; clients pick the first.
type ItemImage struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	URL       string    `json:"image_url"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups items. Items and categories are linked many-to-many.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
