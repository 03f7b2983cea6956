package ports

import (
	"context"
	"drone-delivery-service/internal/domain"
)

// Contract for retrieving terrain elevation at a coordinate, in meters.
type ElevationProvider interface {
	ElevationAt(ctx context.Context, c domain.Coordinate) (float64, error)
}

// Port: persistent cache for elevation lookups keyed by rounded coordinate.
// Keys are expected to be consistent (already rounded) by the caller.
type ElevationCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]float64, error)
	PutMany(ctx context.Context, values map[string]float64) error
}
