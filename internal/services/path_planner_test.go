package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/ports"
)

func testPlanner(t *testing.T, zones []domain.RestrictedZone) *PathPlanner {
	t.Helper()
	idx := geo.NewIndex(zones)
	cost, err := NewCostModel(idx, nil, 10, 500, 1.0, 2.0, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bbox := domain.BoundingBox{MinLat: 0, MaxLat: 0.1, MinLng: 0, MaxLng: 0.1}
	p, err := NewPathPlanner(cost, idx, bbox, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPlanClearAirIsDirect(t *testing.T) {
	p := testPlanner(t, nil)

	start := domain.Coordinate{Lat: 0.01, Lng: 0.01}
	goal := domain.Coordinate{Lat: 0.08, Lng: 0.07}

	route, err := p.Plan(context.Background(), start, goal, 100, ports.Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With nothing in the way the start->goal edge wins outright, at
	// exactly the unadjusted travel time.
	if len(route.Waypoints) != 2 {
		t.Fatalf("waypoints = %d, want direct 2-point route %v", len(route.Waypoints), route.Waypoints)
	}
	if route.Waypoints[0] != start || route.Waypoints[1] != goal {
		t.Fatalf("route endpoints = %v, want [%v %v]", route.Waypoints, start, goal)
	}
	base := p.Cost.BaseCost(start, goal)
	if math.Abs(route.Cost-base) > 1e-9 {
		t.Fatalf("route cost = %v, want base %v", route.Cost, base)
	}
}

func blockingZone() domain.RestrictedZone {
	// A tall band straddling the straight line between the test start and
	// goal, forcing a detour.
	return domain.RestrictedZone{
		Name: "band",
		Vertices: []domain.Coordinate{
			{Lat: 0.02, Lng: 0.04}, {Lat: 0.02, Lng: 0.06},
			{Lat: 0.08, Lng: 0.06}, {Lat: 0.08, Lng: 0.04},
		},
		CeilingMeters: 500,
	}
}

func TestPlanDetoursAroundZone(t *testing.T) {
	zone := blockingZone()
	p := testPlanner(t, []domain.RestrictedZone{zone})

	start := domain.Coordinate{Lat: 0.05, Lng: 0.01}
	goal := domain.Coordinate{Lat: 0.05, Lng: 0.09}

	route, err := p.Plan(context.Background(), start, goal, 100, ports.Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	direct := p.Cost.BaseCost(start, goal)
	if route.Cost <= direct {
		t.Fatalf("detour cost = %v, want more than direct %v", route.Cost, direct)
	}

	// No produced segment may clip the zone.
	idx := geo.NewIndex([]domain.RestrictedZone{zone})
	for i := 0; i+1 < len(route.Waypoints); i++ {
		if idx.Intersects(route.Waypoints[i], route.Waypoints[i+1], 100) {
			t.Fatalf("segment %d (%v -> %v) crosses the restricted zone",
				i, route.Waypoints[i], route.Waypoints[i+1])
		}
	}

	if route.Waypoints[0] != start {
		t.Fatalf("route starts at %v, want %v", route.Waypoints[0], start)
	}
	if route.Waypoints[len(route.Waypoints)-1] != goal {
		t.Fatalf("route ends at %v, want %v", route.Waypoints[len(route.Waypoints)-1], goal)
	}
}

func TestPlanDeterministic(t *testing.T) {
	p := testPlanner(t, []domain.RestrictedZone{blockingZone()})

	start := domain.Coordinate{Lat: 0.05, Lng: 0.01}
	goal := domain.Coordinate{Lat: 0.05, Lng: 0.09}
	cond := ports.Conditions{WindSpeedMPS: 4, WindDirectionDeg: 90}

	first, err := p.Plan(context.Background(), start, goal, 100, cond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := p.Plan(context.Background(), start, goal, 100, cond)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if again.Cost != first.Cost {
			t.Fatalf("run %d: cost %v != %v", i, again.Cost, first.Cost)
		}
		if len(again.Waypoints) != len(first.Waypoints) {
			t.Fatalf("run %d: %d waypoints != %d", i, len(again.Waypoints), len(first.Waypoints))
		}
		for j := range again.Waypoints {
			if again.Waypoints[j] != first.Waypoints[j] {
				t.Fatalf("run %d: waypoint %d = %v, want %v", i, j, again.Waypoints[j], first.Waypoints[j])
			}
		}
	}
}

func TestPlanGoalInsideZone(t *testing.T) {
	p := testPlanner(t, []domain.RestrictedZone{blockingZone()})

	start := domain.Coordinate{Lat: 0.05, Lng: 0.01}
	inside := domain.Coordinate{Lat: 0.05, Lng: 0.05}

	if _, err := p.Plan(context.Background(), start, inside, 100, ports.Conditions{}); !errors.Is(err, ErrNoPath) {
		t.Fatalf("goal in zone: expected ErrNoPath, got %v", err)
	}
	if _, err := p.Plan(context.Background(), inside, start, 100, ports.Conditions{}); !errors.Is(err, ErrNoPath) {
		t.Fatalf("start in zone: expected ErrNoPath, got %v", err)
	}
}

func TestPlanCancelled(t *testing.T) {
	p := testPlanner(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Plan(ctx, domain.Coordinate{Lat: 0.01, Lng: 0.01}, domain.Coordinate{Lat: 0.09, Lng: 0.09}, 100, ports.Conditions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPlanViaIncludesPickup(t *testing.T) {
	p := testPlanner(t, nil)

	home := domain.Coordinate{Lat: 0.01, Lng: 0.01}
	pickup := domain.Coordinate{Lat: 0.05, Lng: 0.08}
	dropoff := domain.Coordinate{Lat: 0.09, Lng: 0.02}

	route, err := p.PlanVia(context.Background(), home, pickup, dropoff, 100, ports.Conditions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := -1
	for i, wp := range route.Waypoints {
		if wp == pickup {
			found = i
			break
		}
	}
	if found < 0 {
		t.Fatalf("pickup %v missing from combined route %v", pickup, route.Waypoints)
	}
	if found == 0 || found == len(route.Waypoints)-1 {
		t.Fatalf("pickup at index %d, want interior waypoint", found)
	}

	if route.Waypoints[0] != home || route.Waypoints[len(route.Waypoints)-1] != dropoff {
		t.Fatalf("route endpoints = %v ... %v, want %v ... %v",
			route.Waypoints[0], route.Waypoints[len(route.Waypoints)-1], home, dropoff)
	}

	want := p.Cost.BaseCost(home, pickup) + p.Cost.BaseCost(pickup, dropoff)
	if math.Abs(route.Cost-want) > 1e-9 {
		t.Fatalf("combined cost = %v, want sum of legs %v", route.Cost, want)
	}
}
