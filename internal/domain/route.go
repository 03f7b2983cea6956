package domain

import "time"

// Represents a planned flight path for the drone.
// A Route is the output of the path planner: an ordered sequence of
// waypoints plus the accumulated traversal cost at planning time.
// It is immutable planning data; a re-plan replaces the Route wholesale,
// it is never edited in place.
type Route struct {
	Waypoints []Coordinate
	Cost      float64
	PlannedAt time.Time
}

// TotalDistanceMeters sums the waypoint-to-waypoint leg distances.
func (r *Route) TotalDistanceMeters() float64 {
	total := 0.0
	for i := 1; i < len(r.Waypoints); i++ {
		total += r.Waypoints[i-1].DistanceMeters(r.Waypoints[i])
	}
	return total
}
