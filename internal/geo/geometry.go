package geo

import (
	"math"

	"drone-delivery-service/internal/domain"
)

// Planar geometry predicates over lat/lng coordinates. At city scale the
// curvature error is far below the zone-polygon resolution, so zone tests
// treat coordinates as points on a plane (lng=x, lat=y).

// PointInPolygon reports whether c lies inside the polygon footprint,
// using the ray-casting parity rule.
func PointInPolygon(c domain.Coordinate, vertices []domain.Coordinate) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > c.Lat) != (vj.Lat > c.Lat) {
			t := (c.Lat - vi.Lat) / (vj.Lat - vi.Lat)
			xCross := vi.Lng + t*(vj.Lng-vi.Lng)
			if c.Lng < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// SegmentsIntersect reports whether segments ab and cd intersect,
// including touching and collinear-overlap cases.
func SegmentsIntersect(a, b, c, d domain.Coordinate) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases: an endpoint lying on the other segment counts.
	if d1 == 0 && onSegment(c, d, a) {
		return true
	}
	if d2 == 0 && onSegment(c, d, b) {
		return true
	}
	if d3 == 0 && onSegment(a, b, c) {
		return true
	}
	if d4 == 0 && onSegment(a, b, d) {
		return true
	}

	return false
}

// cross returns the orientation of p relative to the directed segment ab.
func cross(a, b, p domain.Coordinate) float64 {
	return (b.Lng-a.Lng)*(p.Lat-a.Lat) - (p.Lng-a.Lng)*(b.Lat-a.Lat)
}

// onSegment reports whether p (known collinear with ab) lies within ab's
// bounding range.
func onSegment(a, b, p domain.Coordinate) bool {
	return p.Lng <= math.Max(a.Lng, b.Lng) && p.Lng >= math.Min(a.Lng, b.Lng) &&
		p.Lat <= math.Max(a.Lat, b.Lat) && p.Lat >= math.Min(a.Lat, b.Lat)
}

// SegmentIntersectsPolygon reports whether segment ab crosses any polygon
// edge or lies within the polygon.
func SegmentIntersectsPolygon(a, b domain.Coordinate, vertices []domain.Coordinate) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		p1 := vertices[i]
		p2 := vertices[(i+1)%n]
		if SegmentsIntersect(a, b, p1, p2) {
			return true
		}
	}

	if PointInPolygon(a, vertices) || PointInPolygon(b, vertices) {
		return true
	}

	// Midpoint probe catches a segment lying entirely inside the polygon.
	mid := domain.Coordinate{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
	return PointInPolygon(mid, vertices)
}
