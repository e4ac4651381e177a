// Command migrate applies the embedded schema migrations of the word store
// to the configured PostgreSQL database.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres"
	"github.com/heartmarshall/geotokenizer/internal/app"
	"github.com/heartmarshall/geotokenizer/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if cfg.Store.Backend != config.BackendPostgres {
		logger.Info("nothing to migrate", slog.String("store", cfg.Store.Backend))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	applied, err := postgres.Migrate(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, m := range applied {
		logger.Info("migration applied", slog.Int64("version", m.Version), slog.String("source", m.Source))
	}
	logger.Info("migrations completed", slog.Int("applied", len(applied)))
}
