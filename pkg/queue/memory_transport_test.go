package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const testQueuePath = "projects/p/locations/r/queues/q"

func TestMemoryTransport_CreateTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		m := queue.NewMemoryTransport()
		task := &queue.Task{Name: testQueuePath + "/tasks/a", Body: []byte("x")}

		require.NoError(t, m.CreateTask(ctx, testQueuePath, task))
		err := m.CreateTask(ctx, testQueuePath, task)
		assert.ErrorIs(t, err, queue.ErrTaskAlreadyExists)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("assigns names and queue", func(t *testing.T) {
		t.Parallel()

		m := queue.NewMemoryTransport()
		require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{}))
		require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{}))

		tasks := m.Tasks()
		require.Len(t, tasks, 2)
		assert.NotEqual(t, tasks[0].Name, tasks[1].Name)
		assert.Equal(t, "q", tasks[0].Queue)
		assert.Contains(t, tasks[0].Name, testQueuePath+"/tasks/")
	})

	t.Run("nil task and canceled context", func(t *testing.T) {
		t.Parallel()

		m := queue.NewMemoryTransport()
		assert.Error(t, m.CreateTask(ctx, testQueuePath, nil))

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, m.CreateTask(canceled, testQueuePath, &queue.Task{}), context.Canceled)
	})

	t.Run("finished names are released after retention", func(t *testing.T) {
		t.Parallel()

		clock := &testClock{now: fixedNow}
		m := queue.NewMemoryTransport(queue.WithRetention(time.Hour), queue.WithMemoryClock(clock.Now))
		task := &queue.Task{Name: testQueuePath + "/tasks/a", Queue: "q", CreatedAt: fixedNow}

		require.NoError(t, m.CreateTask(ctx, testQueuePath, task))
		claimed, err := m.ClaimDue(ctx, nil, fixedNow, time.Minute)
		require.NoError(t, err)
		require.NoError(t, m.CompleteTask(ctx, claimed))

		clock.Advance(30 * time.Minute)
		assert.ErrorIs(t, m.CreateTask(ctx, testQueuePath, task), queue.ErrTaskAlreadyExists)

		clock.Advance(31 * time.Minute)
		assert.NoError(t, m.CreateTask(ctx, testQueuePath, task))
	})

	t.Run("pending names are never released", func(t *testing.T) {
		t.Parallel()

		clock := &testClock{now: fixedNow}
		m := queue.NewMemoryTransport(queue.WithRetention(time.Minute), queue.WithMemoryClock(clock.Now))
		task := &queue.Task{Name: testQueuePath + "/tasks/a"}

		require.NoError(t, m.CreateTask(ctx, testQueuePath, task))
		clock.Advance(time.Hour)
		assert.ErrorIs(t, m.CreateTask(ctx, testQueuePath, task), queue.ErrTaskAlreadyExists)
	})
}

func TestMemoryTransport_ClaimDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	later := fixedNow.Add(time.Minute)

	m := queue.NewMemoryTransport()
	require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{Name: "late", Queue: "q", CreatedAt: fixedNow, ScheduleTime: &later}))
	require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{Name: "b", Queue: "q", CreatedAt: fixedNow.Add(time.Second)}))
	require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{Name: "a", Queue: "q", CreatedAt: fixedNow}))
	require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{Name: "other", Queue: "other", CreatedAt: fixedNow}))

	assert.Len(t, m.Due(fixedNow.Add(time.Second)), 3)

	first, err := m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(time.Second), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "a", first.Name)

	second, err := m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(time.Second), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Name)

	_, err = m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(time.Second), time.Hour)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

	retryAt := fixedNow.Add(2 * time.Minute)
	require.NoError(t, m.FailTask(ctx, first, &retryAt))
	require.NoError(t, m.FailTask(ctx, second, nil))
	assert.Error(t, m.CompleteTask(ctx, second), "failed task is not processing")

	late, err := m.ClaimDue(ctx, []string{"q"}, later, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "late", late.Name)

	retried, err := m.ClaimDue(ctx, []string{"q"}, retryAt, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "a", retried.Name)
	assert.Equal(t, 1, retried.RetryCount)

	assert.Error(t, m.CompleteTask(ctx, &queue.Task{Name: "missing"}))
}

func TestMemoryTransport_ExpiredLease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := queue.NewMemoryTransport()
	require.NoError(t, m.CreateTask(ctx, testQueuePath, &queue.Task{Name: "a", Queue: "q", CreatedAt: fixedNow}))

	claimed, err := m.ClaimDue(ctx, []string{"q"}, fixedNow, time.Minute)
	require.NoError(t, err)

	_, err = m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(59*time.Second), time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim, "lease still held")

	reclaimed, err := m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, claimed.Name, reclaimed.Name)
	assert.Zero(t, reclaimed.RetryCount)

	require.NoError(t, m.CompleteTask(ctx, reclaimed))
	_, err = m.ClaimDue(ctx, []string{"q"}, fixedNow.Add(time.Hour), time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
}

func TestMemoryTransport_HonorsContext(t *testing.T) {
	t.Parallel()

	m := queue.NewMemoryTransport()
	require.NoError(t, m.CreateTask(context.Background(), testQueuePath, &queue.Task{Name: "a", Queue: "q", CreatedAt: fixedNow}))
	claimed, err := m.ClaimDue(context.Background(), nil, fixedNow, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.ClaimDue(ctx, nil, fixedNow, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.CompleteTask(ctx, claimed), context.Canceled)
	assert.ErrorIs(t, m.FailTask(ctx, claimed, nil), context.Canceled)
	require.NoError(t, m.CompleteTask(context.Background(), claimed))
}
