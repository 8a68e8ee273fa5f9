package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Skotchmaster/classifieds/internal/config"
	"github.com/Skotchmaster/classifieds/internal/db"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/seed"
)

func main() {
	cfg := config.Load()
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "seed")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("db: %v", err)
	}
	if _, err := seed.Run(ctx, repo.New(gdb), logger); err != nil {
		log.Fatalf("seed: %v", err)
	}
}
