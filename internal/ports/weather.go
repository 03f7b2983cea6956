package ports

import "context"

// Point-in-time read of environmental conditions used for one planning
// or re-planning decision. Fixed value struct with named fields so the
// cost model stays pure and testable.
type Conditions struct {
	WindSpeedMPS     float64
	WindDirectionDeg float64 // meteorological: direction the wind blows FROM
	PrecipitationMMH float64
	VisibilityKM     float64
}

// Contract for retrieving current weather conditions.
//
// Implementations must degrade rather than halt: on upstream failure they
// return the last known (or a default-safe) snapshot instead of an error,
// reserving errors for conditions that cannot be recovered locally.
type WeatherProvider interface {
	CurrentConditions(ctx context.Context) (Conditions, error)
}
