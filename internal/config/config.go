package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"drone-delivery-service/internal/domain"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is populated once at
// startup and immutable thereafter.
type Config struct {
	Port string

	// Elevation cache backend: "sqlite" or "pgx".
	DatabaseDriver string
	DatabaseDSN    string

	ZonesPath string

	OpenWeatherAPIKey string
	GoogleMapsAPIKey  string

	// Operating area and home (factory) location.
	BBox domain.BoundingBox
	Home domain.Coordinate

	DroneSpeedMPS      float64
	CruiseAltitudeM    float64
	MaxElevationM      float64
	TickInterval       time.Duration
	GridSize           int
	WindPenaltyFactor  float64
	WindReplanDeltaMPS float64
	PrecipThresholdMMH float64
	PrecipPenaltySec   float64
}

// Load reads configuration from environment variables and an optional
// .env file. Unset variables fall back to the San Francisco defaults.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist.
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseDSN:       getEnv("DB_DSN", "data/app.db"),
		ZonesPath:         getEnv("ZONES_PATH", "data/restricted_zones.geojson"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		GoogleMapsAPIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
	}

	var err error
	if cfg.BBox.MinLat, err = getFloat("BBOX_MIN_LAT", 37.70); err != nil {
		return nil, err
	}
	if cfg.BBox.MaxLat, err = getFloat("BBOX_MAX_LAT", 37.82); err != nil {
		return nil, err
	}
	if cfg.BBox.MinLng, err = getFloat("BBOX_MIN_LNG", -122.52); err != nil {
		return nil, err
	}
	if cfg.BBox.MaxLng, err = getFloat("BBOX_MAX_LNG", -122.36); err != nil {
		return nil, err
	}
	if cfg.Home.Lat, err = getFloat("HOME_LAT", 37.644249); err != nil {
		return nil, err
	}
	if cfg.Home.Lng, err = getFloat("HOME_LNG", -122.401533); err != nil {
		return nil, err
	}

	if cfg.DroneSpeedMPS, err = getFloat("DRONE_SPEED_MPS", 10); err != nil {
		return nil, err
	}
	if cfg.CruiseAltitudeM, err = getFloat("CRUISE_ALTITUDE_M", 100); err != nil {
		return nil, err
	}
	if cfg.MaxElevationM, err = getFloat("DRONE_MAX_ELEVATION_M", 500); err != nil {
		return nil, err
	}
	if cfg.GridSize, err = getInt("PLANNER_GRID_SIZE", 24); err != nil {
		return nil, err
	}
	if cfg.WindPenaltyFactor, err = getFloat("WIND_PENALTY_FACTOR", 1.0); err != nil {
		return nil, err
	}
	if cfg.WindReplanDeltaMPS, err = getFloat("WIND_REPLAN_DELTA_MPS", 3.0); err != nil {
		return nil, err
	}
	if cfg.PrecipThresholdMMH, err = getFloat("PRECIP_THRESHOLD_MMH", 2.0); err != nil {
		return nil, err
	}
	if cfg.PrecipPenaltySec, err = getFloat("PRECIP_PENALTY_SEC", 60); err != nil {
		return nil, err
	}

	intervalSec, err := getFloat("SIMULATION_UPDATE_INTERVAL_SEC", 2)
	if err != nil {
		return nil, err
	}
	cfg.TickInterval = time.Duration(intervalSec * float64(time.Second))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.BBox.MinLat >= c.BBox.MaxLat || c.BBox.MinLng >= c.BBox.MaxLng {
		return fmt.Errorf("config: bounding box is empty or inverted")
	}
	if c.DroneSpeedMPS <= 0 {
		return fmt.Errorf("config: DRONE_SPEED_MPS must be positive, got %v", c.DroneSpeedMPS)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: SIMULATION_UPDATE_INTERVAL_SEC must be positive")
	}
	if c.GridSize < 2 {
		return fmt.Errorf("config: PLANNER_GRID_SIZE must be at least 2, got %d", c.GridSize)
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "pgx" {
		return fmt.Errorf("config: DB_DRIVER must be sqlite or pgx, got %q", c.DatabaseDriver)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	return n, nil
}
