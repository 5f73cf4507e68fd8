package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

const imageColumns = `id, item_id, image_url, is_primary, created_at`

func scanImage(row rowScanner) (*model.ItemImage, error) {
	img := &model.ItemImage{}
	if err := row.Scan(&img.ID, &img.ItemID, &img.URL, &img.IsPrimary, &img.CreatedAt); err != nil {
		return nil, err
	}
	return img, nil
}

// AddItemImage records an image of an item. Existing primary images are
// left as they are.
func AddItemImage(ctx context.Context, db *sql.DB, itemID, url string, isPrimary bool) (*model.ItemImage, error) {
	id := newID()
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (id, item_id, image_url, is_primary, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, itemID, url, isPrimary, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("adding item image: %w", err)
	}
	return GetItemImage(ctx, db, id)
}

// GetItemImage returns an image by ID.
func GetItemImage(ctx context.Context, db *sql.DB, id string) (*model.ItemImage, error) {
	img, err := scanImage(db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM item_images WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item image: %w", err)
	}
	return img, nil
}

// DeleteItemImage removes an image row and returns it.
func DeleteItemImage(ctx context.Context, db *sql.DB, id string) (*model.ItemImage, error) {
	img, err := GetItemImage(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, apperr.ErrImageNotFound
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM item_images WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting item image: %w", err)
	}
	return img, nil
}

// itemImages returns images keyed by item ID, primary first then oldest.
func itemImages(ctx context.Context, q querier, itemIDs []string, primaryOnly bool) (map[string][]model.ItemImage, error) {
	out := make(map[string][]model.ItemImage)
	if len(itemIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + imageColumns + ` FROM item_images WHERE item_id IN (` + placeholders(len(itemIDs)) + `)`
	if primaryOnly {
		query += ` AND is_primary = 1`
	}
	query += ` ORDER BY is_primary DESC, created_at, id`

	rows, err := q.QueryContext(ctx, query, stringArgs(itemIDs)...)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item image: %w", err)
		}
		out[img.ItemID] = append(out[img.ItemID], *img)
	}
	return out, rows.Err()
}
