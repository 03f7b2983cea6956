package geo

import (
	"math"

	"drone-delivery-service/internal/domain"
)

// Index answers point-in-zone and segment-intersection queries against a
// static restricted-zone set. Zones are bucketed into a uniform grid over
// their combined bounding box so both queries test only the zones whose
// footprints overlap the queried cells, not the whole set. The index is
// built once and is read-only afterwards, so it is safe for concurrent use.
type Index struct {
	zones  []domain.RestrictedZone
	bounds []domain.BoundingBox // per-zone footprint bounds

	origin domain.Coordinate
	cellH  float64 // cell height in degrees latitude
	cellW  float64 // cell width in degrees longitude
	dim    int
	cells  map[int][]int // cell id -> zone indices
}

// Cells per axis. 32x32 keeps per-cell candidate lists short for realistic
// city zone sets while the whole grid stays under a few thousand buckets.
const gridDim = 32

// NewIndex builds the spatial index. An empty zone set yields an index
// whose queries always report no restriction.
func NewIndex(zones []domain.RestrictedZone) *Index {
	idx := &Index{
		zones: zones,
		dim:   gridDim,
		cells: make(map[int][]int),
	}
	if len(zones) == 0 {
		return idx
	}

	idx.bounds = make([]domain.BoundingBox, len(zones))
	total := zones[0].Bounds()
	for i, z := range zones {
		b := z.Bounds()
		idx.bounds[i] = b
		total.MinLat = math.Min(total.MinLat, b.MinLat)
		total.MaxLat = math.Max(total.MaxLat, b.MaxLat)
		total.MinLng = math.Min(total.MinLng, b.MinLng)
		total.MaxLng = math.Max(total.MaxLng, b.MaxLng)
	}

	idx.origin = domain.Coordinate{Lat: total.MinLat, Lng: total.MinLng}
	idx.cellH = (total.MaxLat - total.MinLat) / float64(idx.dim)
	idx.cellW = (total.MaxLng - total.MinLng) / float64(idx.dim)
	// Degenerate extents (single zone collapsed to a line) still need a
	// nonzero cell size for the row/col math below.
	if idx.cellH <= 0 {
		idx.cellH = 1e-9
	}
	if idx.cellW <= 0 {
		idx.cellW = 1e-9
	}

	for i := range zones {
		r0, c0 := idx.cellAt(idx.bounds[i].MinLat, idx.bounds[i].MinLng)
		r1, c1 := idx.cellAt(idx.bounds[i].MaxLat, idx.bounds[i].MaxLng)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				id := r*idx.dim + c
				idx.cells[id] = append(idx.cells[id], i)
			}
		}
	}

	return idx
}

// ZoneCount returns the number of indexed zones.
func (idx *Index) ZoneCount() int { return len(idx.zones) }

// Contains reports whether the point at the given altitude falls inside
// any restricted zone (inside the footprint at or below the ceiling).
func (idx *Index) Contains(c domain.Coordinate, altitude float64) bool {
	for _, zi := range idx.candidates(c, c) {
		z := idx.zones[zi]
		if altitude > z.CeilingMeters {
			continue
		}
		if !idx.bounds[zi].Contains(c) {
			continue
		}
		if PointInPolygon(c, z.Vertices) {
			return true
		}
	}
	return false
}

// Intersects reports whether the segment between a and b at the given
// altitude crosses or lies within any restricted zone.
func (idx *Index) Intersects(a, b domain.Coordinate, altitude float64) bool {
	for _, zi := range idx.candidates(a, b) {
		z := idx.zones[zi]
		if altitude > z.CeilingMeters {
			continue
		}
		if !boxesOverlap(idx.bounds[zi], segmentBounds(a, b)) {
			continue
		}
		if SegmentIntersectsPolygon(a, b, z.Vertices) {
			return true
		}
	}
	return false
}

// candidates returns the deduplicated zone indices bucketed under the
// cells covered by the bounding box of a and b.
func (idx *Index) candidates(a, b domain.Coordinate) []int {
	if len(idx.zones) == 0 {
		return nil
	}

	sb := segmentBounds(a, b)
	r0, c0 := idx.cellAt(sb.MinLat, sb.MinLng)
	r1, c1 := idx.cellAt(sb.MaxLat, sb.MaxLng)

	seen := make(map[int]struct{})
	var out []int
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, zi := range idx.cells[r*idx.dim+c] {
				if _, ok := seen[zi]; ok {
					continue
				}
				seen[zi] = struct{}{}
				out = append(out, zi)
			}
		}
	}
	return out
}

func (idx *Index) cellAt(lat, lng float64) (row, col int) {
	row = int((lat - idx.origin.Lat) / idx.cellH)
	col = int((lng - idx.origin.Lng) / idx.cellW)
	if row < 0 {
		row = 0
	}
	if row >= idx.dim {
		row = idx.dim - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= idx.dim {
		col = idx.dim - 1
	}
	return row, col
}

func segmentBounds(a, b domain.Coordinate) domain.BoundingBox {
	return domain.BoundingBox{
		MinLat: math.Min(a.Lat, b.Lat),
		MaxLat: math.Max(a.Lat, b.Lat),
		MinLng: math.Min(a.Lng, b.Lng),
		MaxLng: math.Max(a.Lng, b.Lng),
	}
}

func boxesOverlap(a, b domain.BoundingBox) bool {
	return a.MinLat <= b.MaxLat && b.MinLat <= a.MaxLat &&
		a.MinLng <= b.MaxLng && b.MinLng <= a.MaxLng
}
