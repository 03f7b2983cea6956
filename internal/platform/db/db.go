package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open connects the elevation-cache database. Driver is "sqlite" for
// local runs or "pgx" for a shared Postgres cache.
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("openDB: open %s database: %w", driver, err)
	}

	// sqlite is a single file; keep a single writer connection to avoid
	// SQLITE_BUSY under concurrent cache writes.
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify %s connection: %w", driver, err)
	}

	return db, nil
}
