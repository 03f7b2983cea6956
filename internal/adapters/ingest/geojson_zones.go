package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"drone-delivery-service/internal/domain"
)

// GeoJSON structures for parsing restricted-zone files. Coordinates are
// [lng, lat] per the GeoJSON spec.
type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Geometry   geoJSONGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// GeoJSONZoneSource loads restricted zones from a GeoJSON
// FeatureCollection of Polygon/MultiPolygon features. A feature's
// altitude ceiling comes from its "ceiling_m" property; features without
// one use DefaultCeilingM.
type GeoJSONZoneSource struct {
	Path            string
	DefaultCeilingM float64
}

func NewGeoJSONZoneSource(path string, defaultCeilingM float64) *GeoJSONZoneSource {
	return &GeoJSONZoneSource{Path: path, DefaultCeilingM: defaultCeilingM}
}

// LoadZones reads and validates the zone file. A missing file is not an
// error; it yields an empty zone set (zones are optional in a run).
func (g *GeoJSONZoneSource) LoadZones(ctx context.Context) ([]domain.RestrictedZone, error) {
	bytes, err := os.ReadFile(g.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load zones: read %q: %w", g.Path, err)
	}

	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(bytes, &fc); err != nil {
		return nil, fmt.Errorf("load zones: parse %q: %w", g.Path, err)
	}

	var zones []domain.RestrictedZone
	for i, feature := range fc.Features {
		name := g.featureName(feature, i)
		ceiling := g.featureCeiling(feature)

		rings, err := outerRings(feature.Geometry)
		if err != nil {
			return nil, fmt.Errorf("load zones: feature %q: %w", name, err)
		}

		for ri, ring := range rings {
			if len(ring) < 3 {
				return nil, fmt.Errorf("load zones: feature %q ring %d has %d vertices, need at least 3", name, ri, len(ring))
			}
			zoneName := name
			if len(rings) > 1 {
				zoneName = fmt.Sprintf("%s#%d", name, ri)
			}
			zones = append(zones, domain.RestrictedZone{
				Name:          zoneName,
				Vertices:      ring,
				CeilingMeters: ceiling,
			})
		}
	}

	return zones, nil
}

func (g *GeoJSONZoneSource) featureName(f geoJSONFeature, idx int) string {
	if v, ok := f.Properties["name"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fmt.Sprintf("zone-%d", idx)
}

func (g *GeoJSONZoneSource) featureCeiling(f geoJSONFeature) float64 {
	if v, ok := f.Properties["ceiling_m"].(float64); ok && v > 0 {
		return v
	}
	return g.DefaultCeilingM
}

// outerRings extracts the outer boundary of each polygon in the geometry.
// Interior holes are ignored: a hole in a no-fly zone is still somewhere a
// delivery drone should not thread through.
func outerRings(geom geoJSONGeometry) ([][]domain.Coordinate, error) {
	switch geom.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parse Polygon coordinates: %w", err)
		}
		if len(coords) == 0 {
			return nil, nil
		}
		return [][]domain.Coordinate{ringToCoordinates(coords[0])}, nil

	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parse MultiPolygon coordinates: %w", err)
		}
		var rings [][]domain.Coordinate
		for _, poly := range coords {
			if len(poly) > 0 {
				rings = append(rings, ringToCoordinates(poly[0]))
			}
		}
		return rings, nil

	default:
		return nil, fmt.Errorf("unsupported geometry type %q", geom.Type)
	}
}

func ringToCoordinates(ring [][]float64) []domain.Coordinate {
	out := make([]domain.Coordinate, 0, len(ring))
	for _, pair := range ring {
		if len(pair) < 2 {
			continue
		}
		out = append(out, domain.Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	// GeoJSON rings repeat the first vertex at the end; drop the duplicate.
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
