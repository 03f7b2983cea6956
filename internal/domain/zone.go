package domain

// RestrictedZone is a static no-fly polygon with an altitude ceiling.
// The zone occupies the airspace from ground level up to CeilingMeters;
// flight above the ceiling clears the zone. Zones are loaded once before
// the scheduler starts and never mutated during a run.
type RestrictedZone struct {
	Name          string
	Vertices      []Coordinate
	CeilingMeters float64
}

// Bounds returns the zone footprint's bounding box.
func (z RestrictedZone) Bounds() BoundingBox {
	if len(z.Vertices) == 0 {
		return BoundingBox{}
	}

	b := BoundingBox{
		MinLat: z.Vertices[0].Lat,
		MaxLat: z.Vertices[0].Lat,
		MinLng: z.Vertices[0].Lng,
		MaxLng: z.Vertices[0].Lng,
	}
	for _, v := range z.Vertices[1:] {
		if v.Lat < b.MinLat {
			b.MinLat = v.Lat
		}
		if v.Lat > b.MaxLat {
			b.MaxLat = v.Lat
		}
		if v.Lng < b.MinLng {
			b.MinLng = v.Lng
		}
		if v.Lng > b.MaxLng {
			b.MaxLng = v.Lng
		}
	}
	return b
}
