package domain

import "time"

// Lifecycle states of a delivery package. Only the scheduler moves a
// package between states.
type PackageStatus string

const (
	PackagePending   PackageStatus = "pending"
	PackageAssigned  PackageStatus = "assigned"
	PackageInTransit PackageStatus = "in_transit"
	PackageDelivered PackageStatus = "delivered"
)

// Represents a single delivery unit handled by the system.
// A Package has a unique identifier, a pickup and a dropoff coordinate.
// Both must lie inside the configured bounding box before the package is
// admitted. Timestamps and cost are populated during simulation.
type Package struct {
	PackageID   string
	Pickup      Coordinate
	Dropoff     Coordinate
	Status      PackageStatus
	CreatedAt   time.Time
	AssignedAt  *time.Time
	DeliveredAt *time.Time
	RouteCost   float64
}
