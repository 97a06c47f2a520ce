package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"herd-analytics/internal/config"
	"herd-analytics/internal/logger"
	"herd-analytics/internal/repository"
)

func main() {
	envFile := flag.String("env", "", "optional .env file to load before reading the environment")
	seed := flag.Int64("seed", 42, "random seed; the same seed always produces the same herds")
	todayFlag := flag.String("today", "", "last day of the generated history (YYYY-MM-DD), defaults to today")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if *todayFlag != "" {
		today, err = time.Parse("2006-01-02", *todayFlag)
		if err != nil {
			log.Error("invalid -today", "value", *todayFlag, "error", err.Error())
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := repository.OpenPostgres(cfg.PGDSN, log)
	if err != nil {
		log.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	if _, err := repository.NewSeedRepository(db, *seed).SeedDatabase(ctx, today); err != nil {
		log.Error("seeding failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("seed complete", "seed", *seed, "as_of", today.Format("2006-01-02"))
}
