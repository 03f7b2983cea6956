package weather

import (
	"context"
	"sync"

	"drone-delivery-service/internal/ports"
)

// MockWeatherProvider serves a settable snapshot, for tests that drive
// condition changes mid-simulation.
type MockWeatherProvider struct {
	mu   sync.Mutex
	cond ports.Conditions
}

func NewMockWeatherProvider(cond ports.Conditions) *MockWeatherProvider {
	return &MockWeatherProvider{cond: cond}
}

func (m *MockWeatherProvider) Set(cond ports.Conditions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cond = cond
}

func (m *MockWeatherProvider) CurrentConditions(ctx context.Context) (ports.Conditions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cond, nil
}
