package httpapi

import (
	"context"
	"errors"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

type runJobsRequest struct {
	// Mode "batch" runs one processing pass over the queue. Mode "seed"
	// enqueues sync_league jobs for the given leagues. Mode "enrich" tops up
	// player enrichment jobs.
	Mode      string   `json:"mode" validate:"required,oneof=batch seed enrich"`
	LeagueIDs []string `json:"league_ids" validate:"required_if=Mode seed,omitempty,dive,numeric"`
	Limit     int      `json:"limit" validate:"omitempty,gte=1,lte=500"`
	DryRun    bool     `json:"dry_run"`
}

type runJobsResponse struct {
	Mode     string               `json:"mode"`
	Enqueued int                  `json:"enqueued,omitempty"`
	Batch    *usecase.BatchResult `json:"batch,omitempty"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJobStats(ctx *fasthttp.RequestCtx) {
	if s.jobs == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "job queue is not configured")
		return
	}

	stats := make(map[string]int, 4)
	for _, status := range []syncjob.Status{
		syncjob.StatusPending,
		syncjob.StatusProcessing,
		syncjob.StatusCompleted,
		syncjob.StatusFailed,
	} {
		count, err := s.jobs.CountByStatus(ctx, status)
		if err != nil {
			s.logger.ErrorContext(ctx, "count jobs failed", "status", status, "error", err)
			writeError(ctx, fasthttp.StatusInternalServerError, "count jobs failed")
			return
		}
		stats[string(status)] = count
	}
	writeJSON(ctx, fasthttp.StatusOK, stats)
}

func (s *Server) handleRunJobs(ctx *fasthttp.RequestCtx) {
	var req runJobsRequest
	if err := sonic.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "malformed request body")
		return
	}
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	if err := s.validator.StructCtx(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	switch req.Mode {
	case "batch":
		s.runBatch(ctx)
	case "seed":
		s.runSeed(ctx, req)
	case "enrich":
		s.runEnrich(ctx, req)
	}
}

func (s *Server) runBatch(ctx *fasthttp.RequestCtx) {
	if s.processor == nil || s.processor.ProcessBatch == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "job processor is not configured")
		return
	}

	result, err := s.processor.ProcessBatch(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "manual batch failed", "error", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "batch processing failed")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, runJobsResponse{Mode: "batch", Batch: &result})
}

func (s *Server) runSeed(ctx *fasthttp.RequestCtx, req runJobsRequest) {
	if s.producer == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "job producer is not configured")
		return
	}
	count, err := s.producer.SeedLeagueJobs(ctx, req.LeagueIDs, req.DryRun)
	if err != nil {
		s.writeProducerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusAccepted, runJobsResponse{Mode: "seed", Enqueued: count})
}

func (s *Server) runEnrich(ctx *fasthttp.RequestCtx, req runJobsRequest) {
	if s.producer == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "job producer is not configured")
		return
	}
	count, err := s.producer.EnqueueEnrichmentJobs(ctx, req.Limit)
	if err != nil {
		s.writeProducerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusAccepted, runJobsResponse{Mode: "enrich", Enqueued: count})
}

func (s *Server) writeProducerError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, usecase.ErrInvalidInput) {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(ctx, "job producer failed", "error", err)
	writeError(ctx, fasthttp.StatusInternalServerError, "job producer failed")
}

var _ context.Context = (*fasthttp.RequestCtx)(nil)
