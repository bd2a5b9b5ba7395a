package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

// DB is the subset of *pgxpool.Pool the transport needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// A finished row whose retention expired is replaced; anything else is a conflict.
const insertTaskSQL = `
INSERT INTO taskq_tasks (queue, name, body, status, schedule_time, due_at, retry_count, created_at, expires_at)
VALUES ($1, $2, $3, 'pending', $4, $5, 0, $6, $7)
ON CONFLICT (queue, name) DO UPDATE SET
    body = EXCLUDED.body,
    status = 'pending',
    schedule_time = EXCLUDED.schedule_time,
    due_at = EXCLUDED.due_at,
    retry_count = 0,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()
WHERE taskq_tasks.status IN ('completed', 'failed')
  AND taskq_tasks.expires_at <= EXCLUDED.created_at`

// A processing row whose lease ran out is claimed again, ordered by when it became available.
const claimTaskSQL = `
UPDATE taskq_tasks SET status = 'processing', locked_until = $3, updated_at = now()
WHERE id = (
    SELECT id FROM taskq_tasks
    WHERE queue = ANY($1)
      AND ((status = 'pending' AND due_at <= $2)
        OR (status = 'processing' AND locked_until <= $2))
    ORDER BY CASE WHEN status = 'processing' THEN locked_until ELSE due_at END
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING queue, name, body, schedule_time, created_at, retry_count`

const finishTaskSQL = `
UPDATE taskq_tasks SET status = $3, locked_until = NULL, updated_at = now()
WHERE queue = $1 AND name = $2 AND status = 'processing'`

const retryTaskSQL = `
UPDATE taskq_tasks SET status = 'pending', schedule_time = $3, due_at = $3, locked_until = NULL,
    retry_count = retry_count + 1, updated_at = now()
WHERE queue = $1 AND name = $2 AND status = 'processing'`

// Transport stores tasks in the taskq_tasks table created by MigrateEmbedded.
// The (queue, name) unique constraint provides the duplicate check.
type Transport struct {
	db        DB
	retention time.Duration
}

// NewTransport creates a Postgres-backed transport. A non-positive retention falls
// back to queue.DefaultRetention.
func NewTransport(db DB, retention time.Duration) (*Transport, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if retention <= 0 {
		retention = queue.DefaultRetention
	}
	return &Transport{db: db, retention: retention}, nil
}

// CreateTask implements queue.Transport.
func (t *Transport) CreateTask(ctx context.Context, queuePath string, task *queue.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	name := task.Name
	if name == "" {
		name = queuePath + "/tasks/" + uuid.NewString()
	}
	queueName := task.Queue
	if queueName == "" {
		queueName = queue.QueueID(queuePath)
	}
	createdAt := task.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	dueAt := createdAt
	if task.ScheduleTime != nil {
		dueAt = *task.ScheduleTime
	}

	tag, err := t.db.Exec(ctx, insertTaskSQL,
		queueName, name, task.Body, task.ScheduleTime, dueAt, createdAt, createdAt.Add(t.retention))
	if err != nil {
		if IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, name)
		}
		return fmt.Errorf("insert task %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, name)
	}
	return nil
}

// ClaimDue implements queue.WorkerSource. SKIP LOCKED lets concurrent workers claim
// different rows.
func (t *Transport) ClaimDue(ctx context.Context, queues []string, now time.Time, lease time.Duration) (*queue.Task, error) {
	var task queue.Task
	err := t.db.QueryRow(ctx, claimTaskSQL, queues, now, now.Add(lease)).Scan(
		&task.Queue, &task.Name, &task.Body, &task.ScheduleTime, &task.CreatedAt, &task.RetryCount,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, queue.ErrNoTaskToClaim
		}
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return &task, nil
}

// CompleteTask implements queue.WorkerSource.
func (t *Transport) CompleteTask(ctx context.Context, task *queue.Task) error {
	return t.finish(ctx, task, statusCompleted)
}

// FailTask implements queue.WorkerSource.
func (t *Transport) FailTask(ctx context.Context, task *queue.Task, retryAt *time.Time) error {
	if retryAt == nil {
		return t.finish(ctx, task, statusFailed)
	}

	tag, err := t.db.Exec(ctx, retryTaskSQL, task.Queue, task.Name, *retryAt)
	if err != nil {
		return fmt.Errorf("reschedule task %s: %w", task.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s is not in %s state", task.Name, statusProcessing)
	}
	return nil
}

func (t *Transport) finish(ctx context.Context, task *queue.Task, status string) error {
	tag, err := t.db.Exec(ctx, finishTaskSQL, task.Queue, task.Name, status)
	if err != nil {
		return fmt.Errorf("mark task %s %s: %w", task.Name, status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s is not in %s state", task.Name, statusProcessing)
	}
	return nil
}

// Purge deletes finished tasks whose retention expired before now and returns how
// many rows were removed.
func (t *Transport) Purge(ctx context.Context, now time.Time) (int64, error) {
	tag, err := t.db.Exec(ctx,
		`DELETE FROM taskq_tasks WHERE status IN ($1, $2) AND expires_at <= $3`,
		statusCompleted, statusFailed, now)
	if err != nil {
		return 0, fmt.Errorf("purge tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}
