package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"geoipload/internal/config"
	"geoipload/internal/repository"
	"geoipload/internal/service"
)

func main() {
	// Initialize logger
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := logConfig.Build()
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Import failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	in, err := os.Open(cfg.InFile)
	if err != nil {
		return fmt.Errorf("opening input file %s: %w", cfg.InFile, err)
	}
	defer in.Close()

	store := repository.NewPostgresRepository(db, logger)
	importer := service.NewImporter(store, cfg.BatchSize, logger)

	ctx := context.Background()

	logger.Info("Starting geo IP import",
		zap.String("in_file", cfg.InFile),
		zap.Int("batch_size", cfg.BatchSize))

	stats, err := importer.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("import aborted after %d records (%d rows, %d lines): %w",
			stats.Records, stats.Rows, stats.Lines, err)
	}

	if count, err := store.GetNetworksCount(ctx); err == nil {
		logger.Info("geo_ip table state", zap.Int64("networks", count))
	} else {
		logger.Warn("Failed to count networks", zap.Error(err))
	}

	return nil
}
