package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/midfieldhq/reconciler/internal/app"
	"github.com/midfieldhq/reconciler/internal/config"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log the planned jobs without enqueueing anything")
	leagues := flag.String("leagues", "", "comma-separated TheSportsDB league ids (defaults to SYNC_TARGET_LEAGUE_IDS)")
	fixtures := flag.Bool("fixtures", true, "sync fixture schedules after draining the queue")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	targets := cfg.TargetLeagueIDs
	if trimmed := strings.TrimSpace(*leagues); trimmed != "" {
		targets = targets[:0:0]
		for _, part := range strings.Split(trimmed, ",") {
			if id := strings.TrimSpace(part); id != "" {
				targets = append(targets, id)
			}
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queued, err := application.Producer.SeedLeagueJobs(ctx, targets, *dryRun)
	if err != nil {
		logger.Error("seed league jobs", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		logger.Info("dry run complete", "leagues", len(targets))
		return
	}
	logger.Info("league jobs queued", "count", queued)

	// Drain until the queue is quiet. Fan-out jobs enqueued by sync_league
	// land in later passes, so keep going while anything was claimed.
	var totals usecase.BatchResult
	for {
		result, err := application.Processor.ProcessBatch(ctx)
		if err != nil {
			logger.Error("process batch", "error", err)
			os.Exit(1)
		}
		totals.Requeued += result.Requeued
		totals.Claimed += result.Claimed
		totals.Completed += result.Completed
		totals.Failed += result.Failed
		if result.Claimed == 0 && result.Requeued == 0 {
			break
		}
	}
	logger.Info("queue drained",
		"claimed", totals.Claimed,
		"completed", totals.Completed,
		"failed", totals.Failed,
	)

	if *fixtures {
		upserted, err := application.Fixtures.SyncDailySchedules(ctx, targets)
		if err != nil {
			logger.Error("schedule sync", "error", err)
			os.Exit(1)
		}
		logger.Info("schedules synced", "fixtures", upserted, "leagues", len(targets))
	}

	// Per-job failures stay in sync_jobs with their error logs; a rerun
	// converges, so they do not fail the import.
	if totals.Failed > 0 {
		logger.Warn("import finished with failed jobs", "failed", totals.Failed)
	}
}
