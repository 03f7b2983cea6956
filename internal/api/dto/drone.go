package dto

type DroneResponse struct {
	DroneID   string          `json:"drone_id"`
	Position  CoordinateDTO   `json:"position"`
	Altitude  float64         `json:"altitude_m"`
	Phase     string          `json:"phase"`
	PackageID string          `json:"current_package_id,omitempty"`
	Route     []CoordinateDTO `json:"route,omitempty"`
	Cursor    int             `json:"route_cursor"`
}

type ListDronesResponse struct {
	Drones []DroneResponse `json:"drones"`
}
