package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"foreclosure-ingest/config"
	"foreclosure-ingest/models"
	"foreclosure-ingest/pipeline"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/scraper/assetbank"
	"foreclosure-ingest/scraper/judicial"
	"foreclosure-ingest/scraper/landbank"
	"foreclosure-ingest/scraper/metrobank"
	"foreclosure-ingest/scraper/opendata"
	"foreclosure-ingest/services"
	"foreclosure-ingest/storage"
	"foreclosure-ingest/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Foreclosure Ingestion Pipeline starting ===")
	logger.Info("Config — city: %s | pages: %d | concurrency: %d | rate: %dms",
		cfg.City, cfg.MaxPages, cfg.MaxConcurrency, cfg.RateLimitMs)

	runlog := utils.NewRunLog(logger)

	store, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	backup := buildBackupStore(cfg, logger)

	timeout := time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	sources := []scraper.Source{
		judicial.New(cfg.JudicialBaseURL, timeout, runlog, retry),
		assetbank.New(cfg.AssetBankBaseURL, timeout, runlog, retry),
		landbank.New(cfg.LandBankBaseURL, timeout, runlog, retry),
		opendata.New(cfg.OpenDataURL, timeout, runlog, retry),
		metrobank.New(cfg.MetroBankBaseURL, cfg.ChromeBin, 90*time.Second, runlog),
	}

	orchestrator := pipeline.New(
		sources,
		services.NewNormalizer(),
		store,
		backup,
		runlog,
		models.Criteria{City: cfg.City, MaxPages: cfg.MaxPages},
		cfg.MaxConcurrency,
		cfg.RateLimitMs,
	)

	results := orchestrator.Run(context.Background())

	failed := 0
	total := 0
	for _, r := range results {
		total += len(r.Listings)
		if r.FetchErr != nil || r.PersistErr != nil {
			failed++
		}
	}

	fmt.Printf("  Done. %d listings ingested across %d sources (%d degraded)\n\n",
		total, len(results), failed)
}

// buildBackupStore picks the object-store backup when an endpoint is
// configured and falls back to local disk otherwise, so every run keeps its
// snapshots and log artifact somewhere.
func buildBackupStore(cfg *config.Config, logger *utils.Logger) storage.SnapshotStore {
	if cfg.S3Endpoint != "" {
		backup, err := storage.NewObjectStore(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err == nil {
			return backup
		}
		logger.Error("Object store unavailable, falling back to local backups: %v", err)
	}

	backup, err := storage.NewLocalBackup(cfg.LocalBackupDir)
	if err != nil {
		logger.Error("Failed to prepare local backup dir: %v", err)
		os.Exit(1)
	}
	return backup
}
