package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLite backed cache for terrain elevation lookups. Keys are rounded
// "lat,lng" strings produced by the elevation provider; the cache never
// interprets them beyond equality.
type SqliteElevationCache struct {
	DB *sql.DB
}

func NewSqliteElevationCache(db *sql.DB) *SqliteElevationCache {
	return &SqliteElevationCache{DB: db}
}

// Fetch cached elevations for a set of coordinate keys.
func (s *SqliteElevationCache) GetMany(ctx context.Context, keys []string) (map[string]float64, error) {
	if s.DB == nil {
		return nil, errors.New("elevation cache: db is nil")
	}

	if len(keys) == 0 {
		return map[string]float64{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	ph := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
		ph = append(ph, "?")
		args = append(args, k)
	}

	if len(uniq) == 0 {
		return map[string]float64{}, nil
	}

	q := fmt.Sprintf(`
	SELECT coord, elevation_m
	FROM elevation_cache
	WHERE coord IN (%s);
	`, strings.Join(ph, ", "))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get elevation cache: query elevation_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(uniq))
	for rows.Next() {
		var coord string
		var elev float64
		if err := rows.Scan(&coord, &elev); err != nil {
			return nil, fmt.Errorf("get elevation cache: scan rows: %w", err)
		}
		out[coord] = elev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get elevation cache: row iteration: %w", err)
	}

	return out, nil
}

// Store elevations for a set of coordinate keys.
func (s *SqliteElevationCache) PutMany(ctx context.Context, values map[string]float64) error {
	if s.DB == nil {
		return errors.New("elevation cache: db is nil")
	}

	if len(values) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert elevation cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO elevation_cache (coord, elevation_m)
	VALUES (?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert elevation cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for coord, elev := range values {
		if strings.TrimSpace(coord) == "" {
			return fmt.Errorf("insert elevation cache: empty coordinate key")
		}
		if _, err := stmt.ExecContext(ctx, coord, elev); err != nil {
			return fmt.Errorf("insert elevation cache coord=%q: %w", coord, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert elevation cache commit: %w", err)
	}

	return nil
}
