// Command era5-fetch downloads ERA5 reanalysis data for one point, one file
// per year, skipping years whose output file already exists.
//
// All settings come from the environment (see internal/config); CDS
// credentials come from CDSAPI_URL/CDSAPI_KEY or ~/.cdsapirc.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/era5-fetch/internal/adapter/cds"
	httpadapter "github.com/couchcryptid/era5-fetch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/era5-fetch/internal/adapter/kafka"
	"github.com/couchcryptid/era5-fetch/internal/adapter/mapbox"
	"github.com/couchcryptid/era5-fetch/internal/config"
	"github.com/couchcryptid/era5-fetch/internal/domain"
	"github.com/couchcryptid/era5-fetch/internal/fetcher"
	"github.com/couchcryptid/era5-fetch/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	runID := uuid.New().String()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the fetch point (feature-flagged via ERA5_PLACE / MAPBOX_TOKEN).
	point := cfg.Point()
	if cfg.Place != "" {
		resolver := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		point, err = resolver.ResolvePlace(ctx, cfg.Place)
		if err != nil {
			logger.Error("failed to resolve ERA5_PLACE", "place", cfg.Place, "error", err)
			return 1
		}
	}

	plan, err := cfg.Plan(point)
	if err != nil {
		logger.Error("invalid fetch plan", "error", err)
		return 1
	}

	var notifier domain.Notifier
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		notifier = writer
		logger.Info("completion events enabled", "topic", cfg.KafkaTopic)
	}

	connect := func() (domain.Retriever, error) {
		creds, err := config.LoadCredentials()
		if err != nil {
			return nil, err
		}
		return cds.NewClient(creds, cfg.CDSTimeout, cfg.CDSPollInterval, logger), nil
	}

	f := fetcher.New(plan, connect, notifier, runID, logger, metrics)

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, f, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := f.Run(ctx, cfg.StartYear, cfg.EndYear)
	if runErr != nil {
		logger.Error("fetch failed", "run_id", runID, "error", runErr)
	}

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			logger.Error("metrics textfile error", "error", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		return 1
	}
	return 0
}
