package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	qb "github.com/midfieldhq/reconciler/internal/platform/querybuilder"
)

type syncJobTableModel struct {
	ID          int64      `db:"id"`
	JobType     string     `db:"job_type"`
	Payload     string     `db:"payload"`
	Status      string     `db:"status"`
	ErrorLog    string     `db:"error_log"`
	CreatedAt   time.Time  `db:"created_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (m syncJobTableModel) toDomain() (syncjob.Job, error) {
	payload, err := unmarshalJobPayload(m.Payload)
	if err != nil {
		return syncjob.Job{}, fmt.Errorf("decode job payload id=%d: %w", m.ID, err)
	}
	return syncjob.Job{
		ID:          m.ID,
		Type:        syncjob.JobType(m.JobType),
		Payload:     payload,
		Status:      syncjob.Status(m.Status),
		ErrorLog:    m.ErrorLog,
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

type SyncJobRepository struct {
	db *sqlx.DB
}

func NewSyncJobRepository(db *sqlx.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

func (r *SyncJobRepository) Enqueue(ctx context.Context, jobs []syncjob.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx enqueue jobs: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `INSERT INTO sync_jobs (job_type, payload, status) VALUES ($1, $2, $3)`
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return err
		}
		payload, err := marshalJobPayload(job.Payload)
		if err != nil {
			return fmt.Errorf("encode job payload type=%s: %w", job.Type, err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, string(job.Type), payload, string(syncjob.StatusPending)); err != nil {
			return fmt.Errorf("insert job type=%s: %w", job.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enqueue jobs: %w", err)
	}
	return nil
}

// ClaimPending flips up to limit oldest pending jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// rows without serializing the whole queue.
func (r *SyncJobRepository) ClaimPending(ctx context.Context, limit int, startedAt time.Time) ([]syncjob.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	const claimQuery = `UPDATE sync_jobs
SET status = 'processing', started_at = $1
WHERE id IN (
    SELECT id FROM sync_jobs
    WHERE status = 'pending'
    ORDER BY created_at, id
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING *`

	var rows []syncJobTableModel
	if err := r.db.SelectContext(ctx, &rows, claimQuery, startedAt, limit); err != nil {
		return nil, fmt.Errorf("claim pending jobs: %w", err)
	}

	out := make([]syncjob.Job, 0, len(rows))
	for _, row := range rows {
		job, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (r *SyncJobRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return r.finish(ctx, id, at, syncjob.StatusCompleted, "")
}

func (r *SyncJobRepository) MarkFailed(ctx context.Context, id int64, at time.Time, errorLog string) error {
	return r.finish(ctx, id, at, syncjob.StatusFailed, errorLog)
}

func (r *SyncJobRepository) finish(ctx context.Context, id int64, at time.Time, status syncjob.Status, errorLog string) error {
	query, args, err := qb.Update("sync_jobs").
		Set("status", string(status)).
		Set("completed_at", at).
		Set("error_log", errorLog).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish job query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark job id=%d %s: %w", id, status, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return syncjob.ErrNotFound
	}
	return nil
}

// RequeueStale frees processing jobs whose lease expired, so work claimed by
// a crashed worker is retried instead of staying parked forever.
func (r *SyncJobRepository) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	query, args, err := qb.Update("sync_jobs").
		Set("status", string(syncjob.StatusPending)).
		SetExpr("started_at", "NULL").
		Where(
			qb.Eq("status", string(syncjob.StatusProcessing)),
			qb.Expr("started_at < ?", olderThan),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build requeue stale jobs query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count requeued jobs: %w", err)
	}
	return int(affected), nil
}

func (r *SyncJobRepository) CountByStatus(ctx context.Context, status syncjob.Status) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("sync_jobs").
		Where(qb.Eq("status", string(status))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count jobs query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count jobs status=%s: %w", status, err)
	}
	return count, nil
}

func marshalJobPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalJobPayload(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := jsoniter.UnmarshalFromString(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
