package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"drone-delivery-service/internal/adapters/weather"
	"drone-delivery-service/internal/api/dto"
	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/ports"
	"drone-delivery-service/internal/services"
	"drone-delivery-service/internal/sim"
)

func testHandlerScheduler(t *testing.T) *sim.Scheduler {
	t.Helper()

	bbox := domain.BoundingBox{MinLat: 0, MaxLat: 0.01, MinLng: 0, MaxLng: 0.01}
	idx := geo.NewIndex(nil)
	cost, err := services.NewCostModel(idx, nil, 10, 500, 1.0, 2.0, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	planner, err := services.NewPathPlanner(cost, idx, bbox, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := sim.NewScheduler(planner, weather.NewMockWeatherProvider(ports.Conditions{}), sim.Options{
		Home:            domain.Coordinate{Lat: 0, Lng: 0},
		BBox:            bbox,
		SpeedMPS:        10,
		CruiseAltitudeM: 100,
		TickInterval:    2 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestCreatePackage(t *testing.T) {
	h := &PackageHandler{Scheduler: testHandlerScheduler(t)}

	body := `{"pickup":{"lat":0.002,"lng":0.002},"dropoff":{"lat":0.008,"lng":0.008}}`
	req := httptest.NewRequest(http.MethodPost, "/packages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var res dto.PackageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(res.PackageID, "pkg-") {
		t.Errorf("package id = %q, want pkg- prefix", res.PackageID)
	}
	if res.Status != string(domain.PackagePending) {
		t.Errorf("status = %q, want pending", res.Status)
	}
	if res.Pickup.Lat != 0.002 || res.Dropoff.Lng != 0.008 {
		t.Errorf("coordinates not echoed back: %+v", res)
	}
}

func TestCreatePackageRandomWhenBodyEmpty(t *testing.T) {
	s := testHandlerScheduler(t)
	h := &PackageHandler{Scheduler: s}

	req := httptest.NewRequest(http.MethodPost, "/packages", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	pkgs := s.ListPackages()
	if len(pkgs) != 1 {
		t.Fatalf("scheduler holds %d packages, want 1", len(pkgs))
	}
	bbox := domain.BoundingBox{MinLat: 0, MaxLat: 0.01, MinLng: 0, MaxLng: 0.01}
	if !bbox.Contains(pkgs[0].Pickup) || !bbox.Contains(pkgs[0].Dropoff) {
		t.Fatalf("random package outside bounds: %+v", pkgs[0])
	}
}

func TestCreatePackageValidation(t *testing.T) {
	h := &PackageHandler{Scheduler: testHandlerScheduler(t)}

	cases := []struct {
		name string
		body string
	}{
		{"pickup without dropoff", `{"pickup":{"lat":0.002,"lng":0.002}}`},
		{"out of bounds", `{"pickup":{"lat":5,"lng":5},"dropoff":{"lat":0.008,"lng":0.008}}`},
		{"unknown field", `{"pickup":{"lat":0.002,"lng":0.002},"dropoff":{"lat":0.008,"lng":0.008},"priority":"high"}`},
		{"malformed json", `{"pickup":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/packages", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Handle(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListPackages(t *testing.T) {
	s := testHandlerScheduler(t)
	h := &PackageHandler{Scheduler: s}

	if _, err := s.CreatePackage(
		domain.Coordinate{Lat: 0.001, Lng: 0.001},
		domain.Coordinate{Lat: 0.009, Lng: 0.009},
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/packages", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res dto.ListPackagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Packages) != 1 {
		t.Fatalf("listed %d packages, want 1", len(res.Packages))
	}
}

func TestPackagesMethodNotAllowed(t *testing.T) {
	h := &PackageHandler{Scheduler: testHandlerScheduler(t)}

	req := httptest.NewRequest(http.MethodDelete, "/packages", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("Allow = %q, want GET, POST", got)
	}
}
