package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/workflow"
)

const tripItemSelect = `SELECT ti.id, ti.trip_id, ti.item_id, ti.status, ti.added_at, ti.added_by,
       ti.returned_at, ti.returned_by, ti.notes_when_added, ti.notes_when_returned,
       ti.created_at, ti.updated_at, i.qr_code_id, i.name, i.description
FROM trip_items ti
JOIN items i ON i.id = ti.item_id`

func scanTripItem(row rowScanner) (*model.TripItem, error) {
	ti := &model.TripItem{Item: &model.TripItemItem{}}
	var notesAdded, notesReturned, desc sql.NullString
	err := row.Scan(&ti.ID, &ti.TripID, &ti.ItemID, &ti.Status, &ti.AddedAt, &ti.AddedBy,
		&ti.ReturnedAt, &ti.ReturnedBy, &notesAdded, &notesReturned,
		&ti.CreatedAt, &ti.UpdatedAt, &ti.Item.QRCode, &ti.Item.Name, &desc)
	if err != nil {
		return nil, err
	}
	ti.NotesWhenAdded = notesAdded.String
	ti.NotesWhenReturned = notesReturned.String
	ti.Item.ID = ti.ItemID
	ti.Item.Description = desc.String
	return ti, nil
}

// ItemInTripDetails are attached to ITEM_ALREADY_IN_TRIP errors.
type ItemInTripDetails struct {
	Item model.ItemRef `json:"item"`
}

func alreadyInTrip(item *model.Item) *apperr.Error {
	return apperr.Newf(apperr.KindConflict, apperr.CodeItemAlreadyInTrip,
		"Item %q is already in this trip", item.Name).
		WithDetails(ItemInTripDetails{Item: item.Ref()})
}

// AddTripItemInput identifies the item to add. ItemID wins over QRCode.
type AddTripItemInput struct {
	ItemID string
	QRCode string
	Notes  string
}

// AddTripItem adds an item to an open trip in the taken state.
func AddTripItem(ctx context.Context, database *sql.DB, p *model.Principal, tripID string, in AddTripItemInput) (*model.TripItem, error) {
	if err := auth.Authorize(p, auth.ActionAddTripItem, auth.Resource{}); err != nil {
		return nil, err
	}

	id := newID()
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		trip, err := mustGetTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if !trip.IsOpen() {
			return apperr.Validation(apperr.CodeTripClosed, "Cannot add items to closed trip")
		}

		var item *model.Item
		switch {
		case in.ItemID != "":
			item, err = getItemWhere(ctx, tx, "id = ?", in.ItemID)
		case in.QRCode != "":
			item, err = getItemWhere(ctx, tx, "qr_code_id = ?", in.QRCode)
		default:
			return apperr.ErrMissingItemIdentifier
		}
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.ErrItemNotFound
		}

		var existing int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM trip_items WHERE trip_id = ? AND item_id = ?`, tripID, item.ID,
		).Scan(&existing)
		if err == nil {
			return alreadyInTrip(item)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking trip item: %w", err)
		}

		ts := now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trip_items (id, trip_id, item_id, status, added_at, added_by, notes_when_added, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, tripID, item.ID, model.TripItemTaken, ts, p.ActorID(), nullString(in.Notes), ts, ts,
		)
		if db.IsUniqueViolation(err) {
			return alreadyInTrip(item)
		}
		if err != nil {
			return fmt.Errorf("adding trip item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetTripItem(ctx, database, id)
}

// ResolveTripItem moves a trip item to a resolved status. It returns the
// updated trip item and the status it had before.
func ResolveTripItem(ctx context.Context, database *sql.DB, p *model.Principal, tripID, itemID string, req workflow.Request) (*model.TripItem, string, error) {
	if err := workflow.Precheck(p, req); err != nil {
		return nil, "", err
	}

	var ti *model.TripItem
	var from string
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		ti, err = findTripItem(ctx, tx, tripID, itemID)
		if err != nil {
			return err
		}

		var itemQR string
		if ti != nil {
			itemQR = ti.Item.QRCode
			from = ti.Status
		}
		if err := workflow.Check(ti, itemQR, req); err != nil {
			return err
		}
		workflow.Apply(ti, p, req, now())

		_, err = tx.ExecContext(ctx,
			`UPDATE trip_items SET status = ?, returned_at = ?, returned_by = ?, notes_when_returned = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			ti.Status, ti.ReturnedAt, ti.ReturnedBy, nullString(ti.NotesWhenReturned), ti.UpdatedAt,
			ti.ID, from,
		)
		if err != nil {
			return fmt.Errorf("updating trip item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	updated, err := GetTripItem(ctx, database, ti.ID)
	if err != nil {
		return nil, "", err
	}
	return updated, from, nil
}

// RemoveTripItem deletes an item from an open trip. Only the trip's
// creator or an admin may do so. The removed trip item is returned.
func RemoveTripItem(ctx context.Context, database *sql.DB, p *model.Principal, tripID, itemID string) (*model.TripItem, error) {
	var ti *model.TripItem
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		trip, err := mustGetTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if !trip.IsOpen() {
			return apperr.Validation(apperr.CodeTripClosed, "Cannot remove items from closed trip")
		}
		if err := auth.Authorize(p, auth.ActionRemoveTripItem, auth.Resource{OwnerID: trip.CreatedBy}); err != nil {
			return err
		}

		ti, err = findTripItem(ctx, tx, tripID, itemID)
		if err != nil {
			return err
		}
		if ti == nil {
			return apperr.ErrItemNotInTrip
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM trip_items WHERE id = ?`, ti.ID); err != nil {
			return fmt.Errorf("removing trip item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ti, nil
}

// GetTripItem returns a trip item with its item, primary image and actors.
func GetTripItem(ctx context.Context, database *sql.DB, id string) (*model.TripItem, error) {
	ti, err := scanTripItem(database.QueryRowContext(ctx, tripItemSelect+` WHERE ti.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trip item: %w", err)
	}

	items := []model.TripItem{*ti}
	if err := attachTripItemRelations(ctx, database, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListTripItems returns the items of a trip, most recently added first,
// optionally filtered by status.
func ListTripItems(ctx context.Context, database *sql.DB, tripID, status string) ([]model.TripItem, error) {
	query := tripItemSelect + ` WHERE ti.trip_id = ?`
	args := []any{tripID}
	if status != "" {
		query += ` AND ti.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY ti.added_at DESC, ti.id`

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trip items: %w", err)
	}
	defer rows.Close()

	items := []model.TripItem{}
	for rows.Next() {
		ti, err := scanTripItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trip item: %w", err)
		}
		items = append(items, *ti)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := attachTripItemRelations(ctx, database, items); err != nil {
		return nil, err
	}
	return items, nil
}

// findTripItem loads the trip item for (trip, item) inside a transaction.
func findTripItem(ctx context.Context, q querier, tripID, itemID string) (*model.TripItem, error) {
	ti, err := scanTripItem(q.QueryRowContext(ctx,
		tripItemSelect+` WHERE ti.trip_id = ? AND ti.item_id = ?`, tripID, itemID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding trip item: %w", err)
	}
	return ti, nil
}

func attachTripItemRelations(ctx context.Context, q querier, items []model.TripItem) error {
	var itemIDs, userIDs []string
	for _, ti := range items {
		itemIDs = append(itemIDs, ti.ItemID)
		if ti.AddedBy != nil {
			userIDs = append(userIDs, *ti.AddedBy)
		}
		if ti.ReturnedBy != nil {
			userIDs = append(userIDs, *ti.ReturnedBy)
		}
	}

	images, err := itemImages(ctx, q, dedupe(itemIDs), true)
	if err != nil {
		return err
	}
	users, err := userRefs(ctx, q, dedupe(userIDs))
	if err != nil {
		return err
	}

	for i := range items {
		ti := &items[i]
		if imgs := images[ti.ItemID]; len(imgs) > 0 && ti.Item != nil {
			ti.Item.PrimaryImage = imgs[0].URL
		}
		if ti.AddedBy != nil {
			ti.Adder = users[*ti.AddedBy]
		}
		if ti.ReturnedBy != nil {
			ti.Returner = users[*ti.ReturnedBy]
		}
	}
	return nil
}
