package elevation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"drone-delivery-service/internal/domain"
)

// memoryCache is a map-backed ElevationCache for tests.
type memoryCache struct {
	rows map[string]float64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rows: map[string]float64{}}
}

func (m *memoryCache) GetMany(ctx context.Context, keys []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, k := range keys {
		if v, ok := m.rows[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryCache) PutMany(ctx context.Context, rows map[string]float64) error {
	for k, v := range rows {
		m.rows[k] = v
	}
	return nil
}

func TestElevationAtFetchesAndCaches(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"results":[{"elevation":52.7}],"status":"OK"}`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	p, err := NewGoogleElevationProvider("test-key", cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = srv.URL

	c := domain.Coordinate{Lat: 37.71234, Lng: -122.41234}

	elev, err := p.ElevationAt(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elev != 52.7 {
		t.Fatalf("elevation = %v, want 52.7", elev)
	}

	// The second lookup, and any lookup rounding to the same key, must be
	// answered from the cache.
	nearby := domain.Coordinate{Lat: 37.71236, Lng: -122.41236}
	for _, q := range []domain.Coordinate{c, nearby} {
		elev, err := p.ElevationAt(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elev != 52.7 {
			t.Fatalf("cached elevation = %v, want 52.7", elev)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1 after cache fill", got)
	}
}

func TestElevationAtRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":[{"elevation":12}],"status":"OK"}`))
	}))
	defer srv.Close()

	p, err := NewGoogleElevationProvider("test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = srv.URL

	elev, err := p.ElevationAt(context.Background(), domain.Coordinate{Lat: 1, Lng: 2})
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if elev != 12 {
		t.Fatalf("elevation = %v, want 12", elev)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3 (two failures, one success)", got)
	}
}

func TestElevationAtAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"status":"REQUEST_DENIED"}`))
	}))
	defer srv.Close()

	p, err := NewGoogleElevationProvider("test-key", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = srv.URL

	if _, err := p.ElevationAt(context.Background(), domain.Coordinate{Lat: 1, Lng: 2}); err == nil {
		t.Fatal("expected error for non-OK API status")
	}
}

func TestCoordKeyRounding(t *testing.T) {
	a := domain.Coordinate{Lat: 37.712341, Lng: -122.412339}
	b := domain.Coordinate{Lat: 37.712344, Lng: -122.412342}
	if coordKey(a) != coordKey(b) {
		t.Fatalf("keys differ: %q vs %q, want shared rounded key", coordKey(a), coordKey(b))
	}
	far := domain.Coordinate{Lat: 37.72, Lng: -122.41}
	if coordKey(a) == coordKey(far) {
		t.Fatalf("distinct locations share key %q", coordKey(a))
	}
}
