package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"db-vacancy-manager/internal/config"
	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/internal/logging"
	"db-vacancy-manager/internal/scraper"
	"db-vacancy-manager/internal/scraper/sources"
	"db-vacancy-manager/internal/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("vacancy loader failed", zap.Error(err), zap.ByteString("stack", errors.Stack(err)))
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting vacancy loader",
		zap.Int("employers", len(cfg.API.Employers)),
		zap.Duration("refresh_interval", cfg.Loader.RefreshInterval))

	store, err := storage.NewPostgresStore(ctx, cfg.Database.DSN(), logger.Named(logging.Store))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	source, release := sources.NewHeadHunterFromConfig(cfg.API, logger.Named(logging.API))
	defer release()

	var opts []scraper.Option
	if cfg.Mirror.Enabled {
		mirror, err := storage.NewSupabaseMirror(cfg.Mirror.SupabaseURL, cfg.Mirror.SupabaseKey)
		if err != nil {
			return err
		}
		opts = append(opts, scraper.WithMirror(mirror))
	}
	collector := scraper.NewCollector(source, store, logger, opts...)

	// Run initial load
	logger.Info("running initial load...")
	if _, err := collector.Load(ctx); err != nil {
		return err
	}
	printMetrics(collector, logger)

	if cfg.Loader.RefreshInterval <= 0 {
		logger.Info("no refresh interval configured, exiting")
		return nil
	}

	runPeriodicLoading(ctx, collector, cfg.Loader.RefreshInterval, logger)
	logger.Info("vacancy loader shutdown complete")
	return nil
}

// runPeriodicLoading reloads at regular intervals until ctx is done
func runPeriodicLoading(ctx context.Context, collector *scraper.Collector, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("starting periodic loading", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic loading cancelled")
			return
		case <-ticker.C:
			logger.Info("starting scheduled load...")
			if _, err := collector.Load(ctx); err != nil {
				// the previously loaded data stays in place
				logger.Error("scheduled load failed", zap.Error(err))
				continue
			}
			printMetrics(collector, logger)
		}
	}
}

// printMetrics logs the metrics of the last load
func printMetrics(collector *scraper.Collector, logger *zap.Logger) {
	metrics := collector.GetMetrics()

	logger.Info("load metrics",
		zap.Int64("employers_fetched", metrics.EmployersFetched),
		zap.Int64("employers_parsed", metrics.EmployersParsed),
		zap.Int64("employers_inserted", metrics.EmployersInserted),
		zap.Int64("vacancies_fetched", metrics.VacanciesFetched),
		zap.Int64("vacancies_parsed", metrics.VacanciesParsed),
		zap.Int64("vacancies_inserted", metrics.VacanciesInserted),
		zap.Int64("duplicates", metrics.Duplicates),
		zap.Int64("orphans", metrics.Orphans),
		zap.Int64("mirror_errors", metrics.MirrorErrors),
		zap.Duration("duration", metrics.Duration),
		zap.Time("last_run", metrics.LastRun))
}
