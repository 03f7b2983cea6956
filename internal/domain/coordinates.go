package domain

import "math"

const earthRadiusMeters = 6371000.0

// Immutable geographic coordinate (latitude, longitude).
type Coordinate struct {
	Lat float64
	Lng float64
}

// Return the coordinate as [lat, lng] for external API compatibility.
func (c Coordinate) CoordsToList() []float64 { return []float64{c.Lat, c.Lng} }

// DistanceMeters returns the great-circle distance to other in meters
// (haversine formula).
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * h
}

// BearingTo returns the initial bearing from c toward other in degrees
// clockwise from north, normalized to [0, 360).
func (c Coordinate) BearingTo(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Rectangular operating area for the simulation. Package pickup and dropoff
// coordinates must fall inside it.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}
