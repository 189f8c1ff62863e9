package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/midfieldhq/reconciler/internal/app"
	"github.com/midfieldhq/reconciler/internal/config"
	"github.com/midfieldhq/reconciler/internal/observability"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := application.HTTP.ListenAndServe(cfg.HTTPAddr); err != nil {
			logger.Error("worker http failed", "error", err)
			stop()
		}
	}()

	runLoops(ctx, cfg, application, logger)

	if err := application.HTTP.Shutdown(); err != nil {
		logger.Error("worker http shutdown failed", "error", err)
	}
	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("pprof shutdown failed", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("pyroscope stop failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("worker stopped")
}

// runLoops drives the worker cadences until the context is cancelled: queue
// polling, livescore refresh, daily schedule sync, and enrichment seeding.
func runLoops(ctx context.Context, cfg config.Config, application *app.App, logger *logging.Logger) {
	poll := time.NewTicker(cfg.SyncPollInterval)
	defer poll.Stop()
	livescores := time.NewTicker(cfg.LivescoreInterval)
	defer livescores.Stop()
	schedules := time.NewTicker(cfg.ScheduleSyncInterval)
	defer schedules.Stop()
	enrich := time.NewTicker(cfg.EnrichInterval)
	defer enrich.Stop()

	syncSchedules(ctx, cfg, application, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			result, err := application.Processor.ProcessBatch(ctx)
			if err != nil {
				logger.Error("process batch", "error", err)
				continue
			}
			if result.Claimed > 0 || result.Requeued > 0 {
				logger.Info("batch processed",
					"requeued", result.Requeued,
					"claimed", result.Claimed,
					"completed", result.Completed,
					"failed", result.Failed,
				)
			}
		case <-livescores.C:
			updated, err := application.Fixtures.UpdateLivescores(ctx)
			if err != nil {
				logger.Error("livescore refresh", "error", err)
				continue
			}
			if updated > 0 {
				logger.Info("livescores updated", "fixtures", updated)
			}
		case <-schedules.C:
			syncSchedules(ctx, cfg, application, logger)
		case <-enrich.C:
			queued, err := application.Producer.EnqueueEnrichmentJobs(ctx, cfg.EnrichBatchSize)
			if err != nil {
				logger.Error("enqueue enrichment jobs", "error", err)
				continue
			}
			if queued > 0 {
				logger.Info("enrichment jobs queued", "count", queued)
			}
		}
	}
}

func syncSchedules(ctx context.Context, cfg config.Config, application *app.App, logger *logging.Logger) {
	upserted, err := application.Fixtures.SyncDailySchedules(ctx, cfg.TargetLeagueIDs)
	if err != nil {
		logger.Error("schedule sync", "error", err)
		return
	}
	logger.Info("schedules synced", "fixtures", upserted, "leagues", len(cfg.TargetLeagueIDs))
}
