package main

import (
	"context"
	"log"

	"drone-delivery-service/internal/adapters/cache"
	"drone-delivery-service/internal/adapters/ingest"
	"drone-delivery-service/internal/config"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// zonetool prepares a deployment offline: it initializes the elevation
// cache schema and validates the restricted-zone file, reporting what the
// planner will see at startup.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	log.Println("Initializing elevation cache schema...")
	if err := cache.InitSchema(database); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Printf("Validating zones file %s...", cfg.ZonesPath)
	zones, err := ingest.NewGeoJSONZoneSource(cfg.ZonesPath, cfg.MaxElevationM).LoadZones(context.Background())
	if err != nil {
		log.Fatalf("zone validation failed: %v", err)
	}

	idx := geo.NewIndex(zones)
	for _, z := range zones {
		b := z.Bounds()
		log.Printf(
			"zone name=%q vertices=%d ceiling=%.0fm bounds=[%.5f,%.5f]x[%.5f,%.5f]",
			z.Name, len(z.Vertices), z.CeilingMeters, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng,
		)
	}
	log.Printf("Zones OK: %d indexed.", idx.ZoneCount())
}
