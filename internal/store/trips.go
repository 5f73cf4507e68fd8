package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/workflow"
)

const tripSelect = `SELECT t.id, t.name, t.start_date, t.end_date, t.location, t.notes, t.status,
       t.created_by, t.created_at, t.updated_at, u.id, u.name
FROM trips t
LEFT JOIN users u ON u.id = t.created_by`

func scanTrip(row rowScanner) (*model.Trip, error) {
	t := &model.Trip{}
	var location, notes, creatorID, creatorName sql.NullString
	err := row.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &location, &notes, &t.Status,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &creatorID, &creatorName)
	if err != nil {
		return nil, err
	}
	t.Location = location.String
	t.Notes = notes.String
	if creatorID.Valid {
		t.Creator = &model.UserRef{ID: creatorID.String, Name: creatorName.String}
	}
	return t, nil
}

// checkDates validates the trip date format and order.
func checkDates(start, end string) error {
	ok, err := model.CheckDateRange(start, end)
	if err != nil {
		return apperr.Validation(apperr.CodeValidation, "Dates must be in YYYY-MM-DD format").WithCause(err)
	}
	if !ok {
		return apperr.Validation(apperr.CodeInvalidDateRange, "Start date must be before or equal to end date")
	}
	return nil
}

// TripInput holds the fields of a new trip.
type TripInput struct {
	Name      string
	StartDate string
	EndDate   string
	Location  string
	Notes     string
}

// CreateTrip creates an open trip. createdBy is nil for the super-admin.
func CreateTrip(ctx context.Context, db *sql.DB, in TripInput, createdBy *string) (*model.Trip, error) {
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	id := newID()
	ts := now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO trips (id, name, start_date, end_date, location, notes, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.StartDate, in.EndDate, nullString(in.Location), nullString(in.Notes),
		model.TripStatusOpen, createdBy, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating trip: %w", err)
	}

	return GetTrip(ctx, db, id)
}

// GetTrip returns a trip with its creator.
func GetTrip(ctx context.Context, db *sql.DB, id string) (*model.Trip, error) {
	return getTrip(ctx, db, id)
}

func getTrip(ctx context.Context, q querier, id string) (*model.Trip, error) {
	t, err := scanTrip(q.QueryRowContext(ctx, tripSelect+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}
	return t, nil
}

// mustGetTrip is getTrip with TRIP_NOT_FOUND for a missing trip.
func mustGetTrip(ctx context.Context, q querier, id string) (*model.Trip, error) {
	t, err := getTrip(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.ErrTripNotFound
	}
	return t, nil
}

// TripFilter narrows ListTrips. Location matches as a substring.
type TripFilter struct {
	Status   string
	Location string
	Page     Page
}

// TripSummary is a trip with its derived item counts.
type TripSummary struct {
	model.Trip
	ItemCounts model.ItemCounts `json:"item_counts"`
}

// ListTrips returns a page of trips, latest start date first.
func ListTrips(ctx context.Context, db *sql.DB, f TripFilter) ([]TripSummary, Pagination, error) {
	page := f.Page.normalize()

	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "t.status = ?")
		args = append(args, f.Status)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, `t.location LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(loc))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips t`+where, args...).Scan(&total); err != nil {
		return nil, Pagination{}, fmt.Errorf("counting trips: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		tripSelect+where+` ORDER BY t.start_date DESC, t.created_at DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.offset())...,
	)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	trips := []TripSummary{}
	var ids []string
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, TripSummary{Trip: *t})
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}
	rows.Close()

	statuses, err := tripItemStatuses(ctx, db, ids)
	if err != nil {
		return nil, Pagination{}, err
	}
	for i := range trips {
		trips[i].ItemCounts = workflow.Summarize(statuses[trips[i].ID]).Counts()
	}

	return trips, newPagination(page, total), nil
}

// TripUpdate holds the fields to change; nil fields are left alone.
type TripUpdate struct {
	Name      *string
	StartDate *string
	EndDate   *string
	Location  *string
	Notes     *string
}

// UpdateTrip updates a trip. Only its creator or an admin may do so.
func UpdateTrip(ctx context.Context, db *sql.DB, p *model.Principal, id string, upd TripUpdate) (*model.Trip, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		t, err := mustGetTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(p, auth.ActionUpdateTrip, auth.Resource{OwnerID: t.CreatedBy}); err != nil {
			return err
		}

		if upd.Name != nil {
			t.Name = *upd.Name
		}
		if upd.StartDate != nil {
			t.StartDate = *upd.StartDate
		}
		if upd.EndDate != nil {
			t.EndDate = *upd.EndDate
		}
		if upd.Location != nil {
			t.Location = *upd.Location
		}
		if upd.Notes != nil {
			t.Notes = *upd.Notes
		}
		if err := checkDates(t.StartDate, t.EndDate); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE trips SET name = ?, start_date = ?, end_date = ?, location = ?, notes = ?, updated_at = ?
			 WHERE id = ?`,
			t.Name, t.StartDate, t.EndDate, nullString(t.Location), nullString(t.Notes), now(), id,
		)
		if err != nil {
			return fmt.Errorf("updating trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetTrip(ctx, db, id)
}

// DeleteTrip removes a trip and its trip items in one transaction and
// returns the number of trip items removed.
func DeleteTrip(ctx context.Context, db *sql.DB, p *model.Principal, id string) (int, error) {
	var removed int
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		t, err := mustGetTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(p, auth.ActionDeleteTrip, auth.Resource{OwnerID: t.CreatedBy}); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM trip_items WHERE trip_id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting trip items: %w", err)
		}
		n, _ := result.RowsAffected()
		removed = int(n)

		if _, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// CloseTrip closes an open trip and returns it with its final statistics.
// Trip items are not modified.
func CloseTrip(ctx context.Context, db *sql.DB, p *model.Principal, id string) (*model.Trip, model.TripStatistics, error) {
	var stats model.TripStatistics
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		t, err := mustGetTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(p, auth.ActionCloseTrip, auth.Resource{OwnerID: t.CreatedBy}); err != nil {
			return err
		}
		if !t.IsOpen() {
			return apperr.ErrTripAlreadyClosed
		}

		statuses, err := tripItemStatuses(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		stats = workflow.Summarize(statuses[id])

		_, err = tx.ExecContext(ctx,
			`UPDATE trips SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			model.TripStatusClosed, now(), id, model.TripStatusOpen,
		)
		if err != nil {
			return fmt.Errorf("closing trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, model.TripStatistics{}, err
	}

	t, err := GetTrip(ctx, db, id)
	if err != nil {
		return nil, model.TripStatistics{}, err
	}
	return t, stats, nil
}

// TripStatistics derives the statistics of a trip from its items.
func TripStatistics(ctx context.Context, db *sql.DB, tripID string) (model.TripStatistics, error) {
	statuses, err := tripItemStatuses(ctx, db, []string{tripID})
	if err != nil {
		return model.TripStatistics{}, err
	}
	return workflow.Summarize(statuses[tripID]), nil
}

// tripItemStatuses returns the item statuses of each trip.
func tripItemStatuses(ctx context.Context, q querier, tripIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(tripIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT trip_id, status FROM trip_items WHERE trip_id IN (`+placeholders(len(tripIDs))+`)`,
		stringArgs(tripIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trip item statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tripID, status string
		if err := rows.Scan(&tripID, &status); err != nil {
			return nil, fmt.Errorf("scanning trip item status: %w", err)
		}
		out[tripID] = append(out[tripID], status)
	}
	return out, rows.Err()
}
