package httpapi

import (
	"context"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/infrastructure/repository/memory"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

func newTestServer(t *testing.T) (*Server, *memory.SyncJobRepository) {
	t.Helper()

	jobs := memory.NewSyncJobRepository()
	producer := usecase.NewJobProducerService(jobs, memory.NewTopicRepository(), logging.NewNop())
	processor := &JobProcessorFacade{
		ProcessBatch: func(context.Context) (usecase.BatchResult, error) {
			return usecase.BatchResult{Claimed: 2, Completed: 2}, nil
		},
	}
	return NewServer(processor, producer, jobs, logging.NewNop()), jobs
}

func serve(s *Server, method, path, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != "" {
		req.SetBodyString(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.route(ctx)
	return ctx
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := serve(s, fasthttp.MethodGet, "/healthz", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), `"ok"`) {
		t.Fatalf("body = %s", ctx.Response.Body())
	}
}

func TestServer_JobStats(t *testing.T) {
	t.Parallel()

	s, jobs := newTestServer(t)
	if err := jobs.Enqueue(context.Background(), []syncjob.Job{
		{Type: syncjob.TypeSyncLeague, Payload: map[string]any{"league_id": "4328"}},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx := serve(s, fasthttp.MethodGet, "/v1/jobs/stats", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}

	var stats map[string]int
	if err := sonic.Unmarshal(ctx.Response.Body(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["pending"] != 1 {
		t.Fatalf("pending = %d, want 1", stats["pending"])
	}
}

func TestServer_RunJobs_Batch(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := serve(s, fasthttp.MethodPost, "/v1/jobs/run", `{"mode":"batch"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp runJobsResponse
	if err := sonic.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Batch == nil || resp.Batch.Completed != 2 {
		t.Fatalf("batch result = %+v", resp.Batch)
	}
}

func TestServer_RunJobs_SeedValidation(t *testing.T) {
	t.Parallel()

	s, jobs := newTestServer(t)

	// Seed without leagues fails validation.
	ctx := serve(s, fasthttp.MethodPost, "/v1/jobs/run", `{"mode":"seed"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", ctx.Response.StatusCode())
	}

	// Non-numeric league ids are rejected before touching the queue.
	ctx = serve(s, fasthttp.MethodPost, "/v1/jobs/run", `{"mode":"seed","league_ids":["epl"]}`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", ctx.Response.StatusCode())
	}

	ctx = serve(s, fasthttp.MethodPost, "/v1/jobs/run", `{"mode":"seed","league_ids":["4328","4335"]}`)
	if ctx.Response.StatusCode() != fasthttp.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if got := len(jobs.List()); got != 2 {
		t.Fatalf("queue length = %d, want 2", got)
	}
}

func TestServer_RunJobs_UnknownModeRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := serve(s, fasthttp.MethodPost, "/v1/jobs/run", `{"mode":"exfiltrate"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", ctx.Response.StatusCode())
	}
}

func TestServer_UnknownPathIs404(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	ctx := serve(s, fasthttp.MethodGet, "/v2/anything", "")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", ctx.Response.StatusCode())
	}
}
