package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

const itemColumns = `id, qr_code_id, name, description, created_at, updated_at`

func scanItem(row rowScanner) (*model.Item, error) {
	i := &model.Item{}
	var desc sql.NullString
	if err := row.Scan(&i.ID, &i.QRCode, &i.Name, &desc, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	i.Description = desc.String
	return i, nil
}

// ItemInput holds the fields of a new item.
type ItemInput struct {
	QRCode      string
	Name        string
	Description string
	CategoryIDs []string
}

// CreateItem creates an item and links its categories in one transaction.
func CreateItem(ctx context.Context, database *sql.DB, in ItemInput) (*model.Item, error) {
	id := newID()
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		if err := checkCategories(ctx, tx, in.CategoryIDs); err != nil {
			return err
		}

		ts := now()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, qr_code_id, name, description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, in.QRCode, in.Name, nullString(in.Description), ts, ts,
		)
		if db.IsUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeDuplicateQRCode, "Item with this QR code already exists").
				WithDetails(map[string]string{"qr_code_id": in.QRCode})
		}
		if err != nil {
			return fmt.Errorf("creating item: %w", err)
		}

		return setItemCategories(ctx, tx, id, in.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}

	return GetItem(ctx, database, id)
}

// GetItem returns an item with its images and categories.
func GetItem(ctx context.Context, database *sql.DB, id string) (*model.Item, error) {
	return getItemWhere(ctx, database, "id = ?", id)
}

// GetItemByQR returns an item by its QR code.
func GetItemByQR(ctx context.Context, database *sql.DB, qrCode string) (*model.Item, error) {
	return getItemWhere(ctx, database, "qr_code_id = ?", qrCode)
}

func getItemWhere(ctx context.Context, q querier, where string, arg any) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+where, arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	items := []model.Item{*item}
	if err := attachItemRelations(ctx, q, items, false); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListItems returns a page of items, newest first. search matches name,
// description or QR code. Only primary images are included.
func ListItems(ctx context.Context, database *sql.DB, search string, page Page) ([]model.Item, Pagination, error) {
	page = page.normalize()

	where := ""
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		pattern := likePattern(search)
		where = ` WHERE name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR qr_code_id LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, Pagination{}, fmt.Errorf("counting items: %w", err)
	}

	rows, err := database.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items`+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.offset())...,
	)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}
	rows.Close()

	if err := attachItemRelations(ctx, database, items, true); err != nil {
		return nil, Pagination{}, err
	}

	return items, newPagination(page, total), nil
}

func attachItemRelations(ctx context.Context, q querier, items []model.Item, primaryOnly bool) error {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	images, err := itemImages(ctx, q, ids, primaryOnly)
	if err != nil {
		return err
	}
	categories, err := itemCategories(ctx, q, ids)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].Images = images[items[i].ID]
		if items[i].Images == nil {
			items[i].Images = []model.ItemImage{}
		}
		items[i].Categories = categories[items[i].ID]
		if items[i].Categories == nil {
			items[i].Categories = []model.Category{}
		}
	}
	return nil
}

// ItemUpdate holds the fields to change. The QR code is immutable.
type ItemUpdate struct {
	Name        *string
	Description *string
	CategoryIDs *[]string
}

// UpdateItem updates an item and, when given, replaces its categories.
func UpdateItem(ctx context.Context, database *sql.DB, id string, upd ItemUpdate) (*model.Item, error) {
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		item, err := scanItem(tx.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
		))
		if err == sql.ErrNoRows {
			return apperr.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("getting item: %w", err)
		}

		if upd.CategoryIDs != nil {
			if err := checkCategories(ctx, tx, *upd.CategoryIDs); err != nil {
				return err
			}
		}

		if upd.Name != nil {
			item.Name = *upd.Name
		}
		if upd.Description != nil {
			item.Description = *upd.Description
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE items SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
			item.Name, nullString(item.Description), now(), id,
		)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}

		if upd.CategoryIDs != nil {
			return setItemCategories(ctx, tx, id, *upd.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetItem(ctx, database, id)
}

// DeleteItem removes an item with its trip associations, category links
// and image rows in one transaction. The deleted images are returned so
// the caller can remove the stored files.
func DeleteItem(ctx context.Context, database *sql.DB, id string) ([]model.ItemImage, error) {
	var images []model.ItemImage
	err := withTx(ctx, database, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return apperr.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("checking item: %w", err)
		}

		byItem, err := itemImages(ctx, tx, []string{id}, false)
		if err != nil {
			return err
		}
		images = byItem[id]

		for _, stmt := range []string{
			`DELETE FROM trip_items WHERE item_id = ?`,
			`DELETE FROM item_categories WHERE item_id = ?`,
			`DELETE FROM item_images WHERE item_id = ?`,
			`DELETE FROM items WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("deleting item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// likePattern wraps s in % and escapes LIKE wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
