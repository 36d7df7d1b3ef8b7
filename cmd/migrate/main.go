package main

import (
	"context"
	"flag"
	"log"

	"motorent-backend/internal/config"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	direction := flag.String("direction", "up", "Migration direction: 'up' or 'down'")
	steps := flag.Int("steps", 1, "Number of migrations to roll back with -direction=down")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.Open(context.Background(), cfg.GetDatabaseConnectionString(), 1, 1)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch *direction {
	case "up":
		err = postgres.Migrate(db)
	case "down":
		err = postgres.MigrateDown(db, *steps)
	default:
		log.Fatalf("Unknown direction %q, expected 'up' or 'down'", *direction)
	}
	if err != nil {
		logger.Error("Migration failed", "direction", *direction, "error", err)
		log.Fatalf("Migration failed: %v", err)
	}
	logger.Info("Migration completed", "direction", *direction)
}
