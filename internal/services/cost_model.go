package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/ports"
)

// ErrEdgeExcluded marks a candidate move as infeasible (restricted zone
// or altitude violation) rather than merely expensive.
var ErrEdgeExcluded = errors.New("edge excluded")

// CostModel turns a candidate move plus an environmental snapshot into a
// traversal cost in seconds, or ErrEdgeExcluded when the move is not
// allowed at all.
//
// The model is a pure function of its inputs: two calls with identical
// geometry and conditions return identical costs. That determinism is
// what makes re-planning well-defined. The base cost is the unadjusted
// travel time; every adjustment only raises it, so a straight-line time
// estimate never overestimates the modeled cost.
type CostModel struct {
	Zones     *geo.Index
	Elevation ports.ElevationProvider

	SpeedMPS           float64
	MaxElevationM      float64
	WindPenaltyFactor  float64
	PrecipThresholdMMH float64
	PrecipPenaltySec   float64
}

func NewCostModel(
	zones *geo.Index,
	elevation ports.ElevationProvider,
	speedMPS, maxElevationM, windPenaltyFactor, precipThresholdMMH, precipPenaltySec float64,
) (*CostModel, error) {
	if speedMPS <= 0 {
		return nil, fmt.Errorf("cost model: speed must be positive, got %v", speedMPS)
	}
	return &CostModel{
		Zones:              zones,
		Elevation:          elevation,
		SpeedMPS:           speedMPS,
		MaxElevationM:      maxElevationM,
		WindPenaltyFactor:  windPenaltyFactor,
		PrecipThresholdMMH: precipThresholdMMH,
		PrecipPenaltySec:   precipPenaltySec,
	}, nil
}

// EdgeCost returns the traversal cost in seconds for flying from -> to at
// the given altitude under cond, or ErrEdgeExcluded.
func (m *CostModel) EdgeCost(
	ctx context.Context,
	from, to domain.Coordinate,
	altitude float64,
	cond ports.Conditions,
) (float64, error) {
	if altitude > m.MaxElevationM {
		return 0, fmt.Errorf("altitude %.0fm above limit %.0fm: %w", altitude, m.MaxElevationM, ErrEdgeExcluded)
	}

	if m.Zones != nil && m.Zones.Intersects(from, to, altitude) {
		return 0, fmt.Errorf("segment crosses restricted zone: %w", ErrEdgeExcluded)
	}

	// Terrain above the drone's elevation limit makes the endpoint
	// unreachable. A provider failure skips the check (degraded but live)
	// rather than failing the edge.
	if m.Elevation != nil {
		elev, err := m.Elevation.ElevationAt(ctx, to)
		if err == nil && elev > m.MaxElevationM {
			return 0, fmt.Errorf("terrain %.0fm above limit %.0fm: %w", elev, m.MaxElevationM, ErrEdgeExcluded)
		}
	}

	base := from.DistanceMeters(to) / m.SpeedMPS
	cost := base * (1 + m.WindPenaltyFactor*m.headwind(from, to, cond)/m.SpeedMPS)

	if cond.PrecipitationMMH >= m.PrecipThresholdMMH && m.PrecipThresholdMMH > 0 {
		cost += m.PrecipPenaltySec
	}

	return cost, nil
}

// BaseCost returns the unadjusted travel time for the segment, which is
// also the planner's admissible heuristic.
func (m *CostModel) BaseCost(from, to domain.Coordinate) float64 {
	return from.DistanceMeters(to) / m.SpeedMPS
}

// headwind returns the wind component opposing travel along the segment,
// clamped at zero: a tailwind never discounts below the calm base cost.
func (m *CostModel) headwind(from, to domain.Coordinate, cond ports.Conditions) float64 {
	if cond.WindSpeedMPS <= 0 {
		return 0
	}
	bearing := from.BearingTo(to)
	// WindDirectionDeg is where the wind blows from; alignment with the
	// travel bearing means the wind is in the drone's face.
	rad := (cond.WindDirectionDeg - bearing) * math.Pi / 180
	h := cond.WindSpeedMPS * math.Cos(rad)
	if h < 0 {
		return 0
	}
	return h
}
