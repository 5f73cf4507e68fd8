package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(row rowScanner) (*model.Category, error) {
	c := &model.Category{}
	var desc sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = desc.String
	return c, nil
}

func duplicateCategory(name string) *apperr.Error {
	return apperr.Conflict(apperr.CodeDuplicateCategory, "Category with this name already exists").
		WithDetails(map[string]string{"name": name})
}

// CreateCategory creates a category with a unique name.
func CreateCategory(ctx context.Context, database *sql.DB, name, description string) (*model.Category, error) {
	id := newID()
	ts := now()
	_, err := database.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, nullString(description), ts, ts,
	)
	if db.IsUniqueViolation(err) {
		return nil, duplicateCategory(name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	return GetCategory(ctx, database, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, database *sql.DB, id string) (*model.Category, error) {
	c, err := scanCategory(database.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, database *sql.DB) ([]model.Category, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// UpdateCategory updates a category's name and/or description. Returns
// nil, nil if it does not exist.
func UpdateCategory(ctx context.Context, database *sql.DB, id string, name, description *string) (*model.Category, error) {
	c, err := GetCategory(ctx, database, id)
	if err != nil || c == nil {
		return nil, err
	}

	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}

	_, err = database.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, nullString(c.Description), now(), id,
	)
	if db.IsUniqueViolation(err) {
		return nil, duplicateCategory(c.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}

	return GetCategory(ctx, database, id)
}

// DeleteCategory removes a category and its item links. Items are kept.
func DeleteCategory(ctx context.Context, database *sql.DB, id string) error {
	return withTx(ctx, database, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return apperr.ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("checking category: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM item_categories WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("unlinking category: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}
		return nil
	})
}

// checkCategories returns INVALID_CATEGORY unless every ID exists.
func checkCategories(ctx context.Context, q querier, ids []string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	var found int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	).Scan(&found)
	if err != nil {
		return fmt.Errorf("checking categories: %w", err)
	}
	if found != len(ids) {
		return apperr.Validation(apperr.CodeInvalidCategory, "One or more category IDs are invalid").
			WithDetails(map[string]int{"found": found, "requested": len(ids)})
	}
	return nil
}

// setItemCategories replaces an item's category links.
func setItemCategories(ctx context.Context, q querier, itemID string, ids []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM item_categories WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing item categories: %w", err)
	}
	for _, cid := range dedupe(ids) {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO item_categories (item_id, category_id) VALUES (?, ?)`, itemID, cid,
		); err != nil {
			return fmt.Errorf("linking category: %w", err)
		}
	}
	return nil
}

// itemCategories returns the categories of the given items keyed by item ID.
func itemCategories(ctx context.Context, q querier, itemIDs []string) (map[string][]model.Category, error) {
	out := make(map[string][]model.Category)
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT ic.item_id, c.id, c.name, c.description, c.created_at, c.updated_at
		 FROM item_categories ic
		 JOIN categories c ON c.id = ic.category_id
		 WHERE ic.item_id IN (`+placeholders(len(itemIDs))+`)
		 ORDER BY c.name`,
		stringArgs(itemIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var c model.Category
		var desc sql.NullString
		if err := rows.Scan(&itemID, &c.ID, &c.Name, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item category: %w", err)
		}
		c.Description = desc.String
		out[itemID] = append(out[itemID], c)
	}
	return out, rows.Err()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
