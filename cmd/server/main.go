package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"drone-delivery-service/internal/adapters/cache"
	"drone-delivery-service/internal/adapters/elevation"
	"drone-delivery-service/internal/adapters/ingest"
	"drone-delivery-service/internal/adapters/weather"
	"drone-delivery-service/internal/api"
	"drone-delivery-service/internal/config"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/platform/db"
	"drone-delivery-service/internal/ports"
	"drone-delivery-service/internal/services"
	"drone-delivery-service/internal/sim"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres cache, OpenWeather, Google
// Elevation, GeoJSON zones) behind ports, starts the scheduler loop and
// the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.OpenWeatherAPIKey == "" {
		log.Fatal("OPENWEATHER_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := cache.InitSchema(database); err != nil {
		log.Fatal(err)
	}

	var elevCache ports.ElevationCache
	if cfg.DatabaseDriver == "pgx" {
		elevCache = cache.NewSQLElevationCache(database)
	} else {
		elevCache = cache.NewSqliteElevationCache(database)
	}

	// Elevation is degraded-optional: without a key the cost model skips
	// terrain checks instead of refusing to start.
	var elevProvider ports.ElevationProvider
	if cfg.GoogleMapsAPIKey != "" {
		elevProvider, err = elevation.NewGoogleElevationProvider(cfg.GoogleMapsAPIKey, elevCache)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set, terrain elevation checks disabled")
	}

	weatherProvider, err := weather.NewOpenWeatherProvider(cfg.OpenWeatherAPIKey, cfg.Home)
	if err != nil {
		log.Fatal(err)
	}

	zones, err := ingest.NewGeoJSONZoneSource(cfg.ZonesPath, cfg.MaxElevationM).LoadZones(ctx)
	if err != nil {
		log.Fatal(err)
	}
	zoneIndex := geo.NewIndex(zones)
	log.Printf("restricted zones loaded count=%d path=%s", zoneIndex.ZoneCount(), cfg.ZonesPath)

	costModel, err := services.NewCostModel(
		zoneIndex, elevProvider,
		cfg.DroneSpeedMPS, cfg.MaxElevationM,
		cfg.WindPenaltyFactor, cfg.PrecipThresholdMMH, cfg.PrecipPenaltySec,
	)
	if err != nil {
		log.Fatal(err)
	}

	planner, err := services.NewPathPlanner(costModel, zoneIndex, cfg.BBox, cfg.GridSize)
	if err != nil {
		log.Fatal(err)
	}

	scheduler, err := sim.NewScheduler(planner, weatherProvider, sim.Options{
		Home:               cfg.Home,
		BBox:               cfg.BBox,
		SpeedMPS:           cfg.DroneSpeedMPS,
		CruiseAltitudeM:    cfg.CruiseAltitudeM,
		TickInterval:       cfg.TickInterval,
		WindReplanDeltaMPS: cfg.WindReplanDeltaMPS,
		PrecipThresholdMMH: cfg.PrecipThresholdMMH,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Seed one package so the drone has something to deliver on startup.
	if _, err := scheduler.CreateRandomPackage(); err != nil {
		log.Printf("initial package seed failed: %v", err)
	}

	go scheduler.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(scheduler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
