package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

const userColumns = `id, name, pin_hash, role, is_active, created_at, updated_at, deleted_at`

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.PINHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user. pinHash must already be hashed.
func CreateUser(ctx context.Context, db *sql.DB, name, pinHash, role string) (*model.User, error) {
	id := newID()
	ts := now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, name, pin_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id, name, pinHash, role, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, including soft-deleted users.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users, newest first.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	return queryUsers(ctx, db,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC, id`)
}

// ListActiveUsers returns the users allowed to log in, oldest first.
func ListActiveUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	return queryUsers(ctx, db,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = 1 AND deleted_at IS NULL ORDER BY created_at, id`)
}

// CountUsers returns the number of non-deleted users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

func queryUsers(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserUpdate holds the fields to change; nil fields are left alone.
type UserUpdate struct {
	Name     *string
	PINHash  *string
	Role     *string
	IsActive *bool
}

// UpdateUser applies an update to a non-deleted user. Returns nil, nil if
// the user does not exist or was deleted.
func UpdateUser(ctx context.Context, db *sql.DB, id string, upd UserUpdate) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now()}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.PINHash != nil {
		sets = append(sets, "pin_hash = ?")
		args = append(args, *upd.PINHash)
	}
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}

	return GetUser(ctx, db, id)
}

// DeleteUser soft-deletes and deactivates a user. Returns false if the
// user does not exist or was already deleted.
func DeleteUser(ctx context.Context, db *sql.DB, id string) (bool, error) {
	ts := now()
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = ?, is_active = 0, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		ts, ts, id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// userRefs resolves user IDs to compact refs, skipping unknown IDs.
func userRefs(ctx context.Context, q querier, ids []string) (map[string]*model.UserRef, error) {
	refs := make(map[string]*model.UserRef)
	if len(ids) == 0 {
		return refs, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.UserRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning user ref: %w", err)
		}
		refs[r.ID] = &r
	}
	return refs, rows.Err()
}
