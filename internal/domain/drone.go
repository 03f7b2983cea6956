package domain

// Stage of the drone's delivery cycle.
type DronePhase string

const (
	PhaseIdle       DronePhase = "idle"
	PhaseDelivering DronePhase = "delivering"
	PhaseReturning  DronePhase = "returning"
)

// Delivery drone aggregate. Exactly one Drone exists per simulation run;
// the scheduler exclusively owns and mutates it.
//
// Invariants: Route is non-nil only while Phase != idle; Cursor is a valid
// index into Route.Waypoints, or equal to len(Route.Waypoints) meaning the
// drone has arrived at the final waypoint.
type Drone struct {
	DroneID   string
	Position  Coordinate
	Altitude  float64
	SpeedMPS  float64
	Phase     DronePhase
	Route     *Route
	Cursor    int
	PackageID string
}

// RemainingWaypoints returns the unflown portion of the current route.
func (d *Drone) RemainingWaypoints() []Coordinate {
	if d.Route == nil || d.Cursor >= len(d.Route.Waypoints) {
		return nil
	}
	rest := make([]Coordinate, len(d.Route.Waypoints)-d.Cursor)
	copy(rest, d.Route.Waypoints[d.Cursor:])
	return rest
}
