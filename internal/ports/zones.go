package ports

import (
	"context"
	"drone-delivery-service/internal/domain"
)

// Port: a boundary for loading the static restricted-zone set before the
// scheduler starts. The zone set is immutable for the rest of the run.
type ZoneSource interface {
	LoadZones(ctx context.Context) ([]domain.RestrictedZone, error)
}
