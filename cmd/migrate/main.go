package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bakehouse/backend/internal/infrastructure/config"
	"github.com/bakehouse/backend/internal/infrastructure/logger"
	"github.com/bakehouse/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Applies the schema to the configured database and exits. The server runs
// the same migration on startup; this command exists for provisioning a
// database ahead of a deploy.
func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Schema migrated", zap.String("database", cfg.Database.DBName))
}
