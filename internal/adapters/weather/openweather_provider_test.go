package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/ports"
)

func testProvider(t *testing.T, url string) *OpenWeatherProvider {
	t.Helper()
	p, err := NewOpenWeatherProvider("test-key", domain.Coordinate{Lat: 37.7, Lng: -122.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.baseURL = url
	return p
}

func TestCurrentConditionsParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("appid = %q, want test-key", got)
		}
		w.Write([]byte(`{"wind":{"speed":6.5,"deg":210},"rain":{"1h":1.2},"visibility":8000}`))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	cond, err := p.CurrentConditions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ports.Conditions{WindSpeedMPS: 6.5, WindDirectionDeg: 210, PrecipitationMMH: 1.2, VisibilityKM: 8}
	if cond != want {
		t.Fatalf("conditions = %+v, want %+v", cond, want)
	}
}

func TestCurrentConditionsServesStaleOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"wind":{"speed":3,"deg":90},"visibility":10000}`))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	p.RefreshInterval = 0 // force a fetch on every call

	first, err := p.CurrentConditions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail.Store(true)

	stale, err := p.CurrentConditions(context.Background())
	if err != nil {
		t.Fatalf("upstream failure must not surface: %v", err)
	}
	if stale != first {
		t.Fatalf("degraded snapshot = %+v, want last known %+v", stale, first)
	}
}

func TestCurrentConditionsDefaultSafeBeforeFirstSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	cond, err := p.CurrentConditions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond != defaultSafe() {
		t.Fatalf("conditions = %+v, want the calm default %+v", cond, defaultSafe())
	}
}

func TestCurrentConditionsCachesWithinRefreshInterval(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"wind":{"speed":1,"deg":0},"visibility":10000}`))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)

	for i := 0; i < 5; i++ {
		if _, err := p.CurrentConditions(context.Background()); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1 within the refresh interval", got)
	}
}
