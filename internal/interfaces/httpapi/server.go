package httpapi

import (
	"context"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

// Server is the worker's operational surface: a health probe, queue depth
// introspection, and a manual trigger for a processing pass or a one-off job.
// It is internal infrastructure, not a public API.
type Server struct {
	processor *JobProcessorFacade
	producer  *usecase.JobProducerService
	jobs      syncjob.Repository
	validator *validator.Validate
	logger    *logging.Logger
	server    *fasthttp.Server
}

// JobProcessorFacade narrows the processor to what the trigger endpoint
// needs, keeping the handler testable without a full worker loop.
type JobProcessorFacade struct {
	ProcessBatch func(ctx context.Context) (usecase.BatchResult, error)
}

func NewServer(
	processor *JobProcessorFacade,
	producer *usecase.JobProducerService,
	jobs syncjob.Repository,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Server{
		processor: processor,
		producer:  producer,
		jobs:      jobs,
		validator: validator.New(),
		logger:    logger,
	}
	s.server = &fasthttp.Server{
		Handler:      s.route,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Name:         "reconciler-worker",
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("worker http listening", "addr", addr)
	return s.server.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic recovered", "panic", rec, "path", string(ctx.Path()))
			writeError(ctx, fasthttp.StatusInternalServerError, "internal error")
		}
	}()

	switch string(ctx.Path()) {
	case "/healthz":
		if ctx.IsGet() {
			s.handleHealth(ctx)
			return
		}
	case "/v1/jobs/stats":
		if ctx.IsGet() {
			s.handleJobStats(ctx)
			return
		}
	case "/v1/jobs/run":
		if ctx.IsPost() {
			s.handleRunJobs(ctx)
			return
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
		return
	}
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	raw, err := sonic.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, map[string]string{"error": message})
}
