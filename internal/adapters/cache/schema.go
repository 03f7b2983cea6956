package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the elevation cache table. The statement is valid in
// both sqlite and Postgres.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS elevation_cache (
		coord TEXT PRIMARY KEY,
		elevation_m REAL NOT NULL
	);
	`

	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("init schema: create elevation_cache: %w", err)
	}

	return nil
}
