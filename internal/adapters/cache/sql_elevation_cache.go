package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"drone-delivery-service/internal/platform/obs"
)

// SQLElevationCache is a Postgres-backed cache for terrain elevation
// lookups, for deployments sharing one cache across instances.
type SQLElevationCache struct {
	DB *sql.DB
}

func NewSQLElevationCache(db *sql.DB) *SQLElevationCache {
	return &SQLElevationCache{DB: db}
}

// Fetch cached elevations for a set of coordinate keys.
func (s *SQLElevationCache) GetMany(ctx context.Context, keys []string) (_ map[string]float64, err error) {
	defer obs.Time(ctx, "elevation.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("elevation cache: db is nil")
	}

	if len(keys) == 0 {
		return map[string]float64{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
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
	}

	if len(uniq) == 0 {
		return map[string]float64{}, nil
	}

	q := `
	SELECT coord, elevation_m
	FROM elevation_cache
	WHERE coord = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
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
func (s *SQLElevationCache) PutMany(ctx context.Context, values map[string]float64) error {
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
	INSERT INTO elevation_cache (coord, elevation_m)
	VALUES ($1, $2)
	ON CONFLICT (coord) DO UPDATE
	SET elevation_m = EXCLUDED.elevation_m;
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
