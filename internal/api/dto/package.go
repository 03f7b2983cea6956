package dto

import "time"

type CoordinateDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreatePackageRequest admits a package. When both points are omitted the
// server generates random in-bounds coordinates.
type CreatePackageRequest struct {
	Pickup  *CoordinateDTO `json:"pickup"`
	Dropoff *CoordinateDTO `json:"dropoff"`
}

type PackageResponse struct {
	PackageID   string        `json:"package_id"`
	Pickup      CoordinateDTO `json:"pickup"`
	Dropoff     CoordinateDTO `json:"dropoff"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	AssignedAt  *time.Time    `json:"assigned_at,omitempty"`
	DeliveredAt *time.Time    `json:"delivered_at,omitempty"`
	RouteCost   float64       `json:"route_cost_seconds,omitempty"`
}

type ListPackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
}
