package elevation

import (
	"context"

	"drone-delivery-service/internal/domain"
)

// MockElevationProvider returns a fixed elevation everywhere, with optional
// overrides for specific rounded coordinates.
type MockElevationProvider struct {
	Default   float64
	Overrides map[string]float64
}

func NewMockElevationProvider(defaultElev float64) *MockElevationProvider {
	return &MockElevationProvider{
		Default:   defaultElev,
		Overrides: map[string]float64{},
	}
}

// SetElevation pins the elevation reported near c.
func (m *MockElevationProvider) SetElevation(c domain.Coordinate, elev float64) {
	m.Overrides[coordKey(c)] = elev
}

func (m *MockElevationProvider) ElevationAt(ctx context.Context, c domain.Coordinate) (float64, error) {
	if elev, ok := m.Overrides[coordKey(c)]; ok {
		return elev, nil
	}
	return m.Default, nil
}
