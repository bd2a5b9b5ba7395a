package pg_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/pkg/logger"
	"github.com/dmitrymomot/taskq/pkg/pg"
	"github.com/dmitrymomot/taskq/pkg/queue"
)

const queuePath = "projects/p/locations/r/queues/emails"

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execTag pgconn.CommandTag
	execErr error
	row     pgx.Row
	calls   []execCall
	queries []execCall
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.execTag, f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return f.row
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestNewTransport(t *testing.T) {
	t.Parallel()

	_, err := pg.NewTransport(nil, time.Hour)
	assert.ErrorIs(t, err, pg.ErrNilDB)
}

func TestTransport_CreateTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	created := time.UnixMilli(1700000000000)

	t.Run("inserted", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
		tr, err := pg.NewTransport(db, time.Hour)
		require.NoError(t, err)

		task := &queue.Task{Name: queuePath + "/tasks/a", Body: []byte("b"), CreatedAt: created}
		require.NoError(t, tr.CreateTask(ctx, queuePath, task))

		require.Len(t, db.calls, 1)
		args := db.calls[0].args
		assert.Equal(t, "emails", args[0])
		assert.Equal(t, queuePath+"/tasks/a", args[1])
		assert.Equal(t, created, args[4], "due_at defaults to created_at")
		assert.Equal(t, created.Add(time.Hour), args[6])
	})

	t.Run("no rows means conflict", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 0")}
		tr, err := pg.NewTransport(db, 0)
		require.NoError(t, err)

		err = tr.CreateTask(ctx, queuePath, &queue.Task{Name: queuePath + "/tasks/a", CreatedAt: created})
		assert.ErrorIs(t, err, queue.ErrTaskAlreadyExists)
	})

	t.Run("unique violation means conflict", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execErr: &pgconn.PgError{Code: "23505"}}
		tr, err := pg.NewTransport(db, 0)
		require.NoError(t, err)

		err = tr.CreateTask(ctx, queuePath, &queue.Task{Name: queuePath + "/tasks/a"})
		assert.ErrorIs(t, err, queue.ErrTaskAlreadyExists)
	})

	t.Run("other errors are retryable", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		db := &fakeDB{execErr: boom}
		tr, err := pg.NewTransport(db, 0)
		require.NoError(t, err)

		err = tr.CreateTask(ctx, queuePath, &queue.Task{Name: queuePath + "/tasks/a"})
		assert.ErrorIs(t, err, boom)
		assert.False(t, queue.IsAlreadyExists(err))
	})

	t.Run("unnamed task gets a generated name", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
		tr, err := pg.NewTransport(db, 0)
		require.NoError(t, err)

		require.NoError(t, tr.CreateTask(ctx, queuePath, &queue.Task{}))
		name, ok := db.calls[0].args[1].(string)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(name, queuePath+"/tasks/"))
	})
}

func TestTransport_ClaimDue_NoRows(t *testing.T) {
	t.Parallel()

	db := &fakeDB{row: errRow{err: pgx.ErrNoRows}}
	tr, err := pg.NewTransport(db, 0)
	require.NoError(t, err)

	now := time.UnixMilli(1700000000000)
	_, err = tr.ClaimDue(context.Background(), []string{"emails"}, now, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

	require.Len(t, db.queries, 1)
	assert.Equal(t, []any{[]string{"emails"}, now, now.Add(time.Minute)}, db.queries[0].args)
	assert.Contains(t, db.queries[0].sql, "locked_until <= $2", "expired leases are claimable")
}

func TestTransport_FailTask_NotProcessing(t *testing.T) {
	t.Parallel()

	tr, err := pg.NewTransport(&fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}, 0)
	require.NoError(t, err)

	assert.Error(t, tr.FailTask(context.Background(), &queue.Task{Name: "a", Queue: "emails"}, nil))
	assert.Error(t, tr.CompleteTask(context.Background(), &queue.Task{Name: "a", Queue: "emails"}))
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsDuplicateKeyError(nil))
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
}

// TestTransport_Postgres runs against TASKQ_TEST_PG_URL when set.
func TestTransport_Postgres(t *testing.T) {
	url := os.Getenv("TASKQ_TEST_PG_URL")
	if url == "" || testing.Short() {
		t.Skip("skipping postgres test: TASKQ_TEST_PG_URL not set")
	}

	ctx := context.Background()
	pool, err := pg.Connect(ctx, pg.Config{ConnectionString: url, RetryAttempts: 1})
	if err != nil {
		t.Skipf("skipping: postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, pg.MigrateEmbedded(ctx, pool, pg.Config{MigrationsTable: "taskq_schema_migrations"}, logger.Discard()))
	require.NoError(t, pg.Healthcheck(pool)(ctx))

	tr, err := pg.NewTransport(pool, time.Hour)
	require.NoError(t, err)

	queueName := "emails-" + uuid.NewString()
	path := queue.QueuePath("p", "r", queueName)
	now := time.Now().UTC().Truncate(time.Millisecond)
	task := &queue.Task{Name: path + "/tasks/a", Queue: queueName, Body: []byte("e30="), CreatedAt: now}

	require.NoError(t, tr.CreateTask(ctx, path, task))
	assert.ErrorIs(t, tr.CreateTask(ctx, path, task), queue.ErrTaskAlreadyExists)

	claimed, err := tr.ClaimDue(ctx, []string{queueName}, now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, task.Name, claimed.Name)
	assert.Equal(t, task.Body, claimed.Body)

	_, err = tr.ClaimDue(ctx, []string{queueName}, now, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

	reclaimed, err := tr.ClaimDue(ctx, []string{queueName}, now.Add(time.Minute), time.Minute)
	require.NoError(t, err, "expired lease is claimable again")
	assert.Equal(t, task.Name, reclaimed.Name)

	require.NoError(t, tr.CompleteTask(ctx, reclaimed))
	assert.ErrorIs(t, tr.CreateTask(ctx, path, task), queue.ErrTaskAlreadyExists, "completed names stay reserved")

	expired := *task
	expired.CreatedAt = now.Add(2 * time.Hour)
	assert.NoError(t, tr.CreateTask(ctx, path, &expired), "name is released after retention")
}
