package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q, want sqlite", cfg.DatabaseDriver)
	}
	if cfg.BBox.MinLat != 37.70 || cfg.BBox.MaxLat != 37.82 {
		t.Errorf("latitude bounds = %v..%v, want 37.70..37.82", cfg.BBox.MinLat, cfg.BBox.MaxLat)
	}
	if cfg.BBox.MinLng != -122.52 || cfg.BBox.MaxLng != -122.36 {
		t.Errorf("longitude bounds = %v..%v, want -122.52..-122.36", cfg.BBox.MinLng, cfg.BBox.MaxLng)
	}
	if cfg.Home.Lat != 37.644249 || cfg.Home.Lng != -122.401533 {
		t.Errorf("home = %v, want factory location", cfg.Home)
	}
	if cfg.DroneSpeedMPS != 10 {
		t.Errorf("DroneSpeedMPS = %v, want 10", cfg.DroneSpeedMPS)
	}
	if cfg.MaxElevationM != 500 {
		t.Errorf("MaxElevationM = %v, want 500", cfg.MaxElevationM)
	}
	if cfg.TickInterval != 2*time.Second {
		t.Errorf("TickInterval = %v, want 2s", cfg.TickInterval)
	}
	if cfg.GridSize != 24 {
		t.Errorf("GridSize = %v, want 24", cfg.GridSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DRONE_SPEED_MPS", "15")
	t.Setenv("SIMULATION_UPDATE_INTERVAL_SEC", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DatabaseDriver != "pgx" {
		t.Errorf("DatabaseDriver = %q, want pgx", cfg.DatabaseDriver)
	}
	if cfg.DroneSpeedMPS != 15 {
		t.Errorf("DroneSpeedMPS = %v, want 15", cfg.DroneSpeedMPS)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", cfg.TickInterval)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable float", "DRONE_SPEED_MPS", "fast"},
		{"negative speed", "DRONE_SPEED_MPS", "-3"},
		{"inverted bbox", "BBOX_MIN_LAT", "38.0"},
		{"bad driver", "DB_DRIVER", "oracle"},
		{"tiny grid", "PLANNER_GRID_SIZE", "1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
