package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: Collapse the older planning/active/completed trip
	// lifecycle into open/closed.
	`UPDATE trips SET status = 'closed' WHERE status = 'completed'`,
	`UPDATE trips SET status = 'open' WHERE status IN ('planning', 'active')`,

	// Migration 2: Rename the packed trip item status to taken.
	`UPDATE trip_items SET status = 'taken' WHERE status = 'packed'`,

	// Migration 3: Soft-deleted users can never log in.
	`UPDATE users SET is_active = 0 WHERE deleted_at IS NOT NULL AND is_active = 1`,
}

// Migrate ensures the schema and runs the data migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
