package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how long a task name keeps blocking duplicates after creation.
const DefaultRetention = 4 * time.Hour

type taskStatus int

const (
	statusPending taskStatus = iota
	statusProcessing
	statusCompleted
	statusFailed
)

type memoryEntry struct {
	task        Task
	status      taskStatus
	lockedUntil time.Time
	retainUntil time.Time
}

// claimable reports whether a worker may take the entry at now: a due pending task,
// or a processing task whose lease ran out.
func (e *memoryEntry) claimable(now time.Time) bool {
	switch e.status {
	case statusPending:
		return !e.task.DueAt().After(now)
	case statusProcessing:
		return !e.lockedUntil.After(now)
	default:
		return false
	}
}

// claimOrder is the time the entry became claimable.
func (e *memoryEntry) claimOrder() time.Time {
	if e.status == statusProcessing {
		return e.lockedUntil
	}
	return e.task.DueAt()
}

// MemoryTransport is a process-local Transport for tests and local development.
// It remembers task names for the retention horizon, like a remote task service does,
// and serves due tasks to a Worker.
type MemoryTransport struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	order     []string
	retention time.Duration
	now       func() time.Time
}

// MemoryOption configures a MemoryTransport.
type MemoryOption func(*MemoryTransport)

// WithRetention sets the duplicate suppression horizon.
func WithRetention(d time.Duration) MemoryOption {
	return func(m *MemoryTransport) {
		if d > 0 {
			m.retention = d
		}
	}
}

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryTransport) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport(opts ...MemoryOption) *MemoryTransport {
	m := &MemoryTransport{
		entries:   make(map[string]*memoryEntry),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateTask implements Transport.
func (m *MemoryTransport) CreateTask(ctx context.Context, queuePath string, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purgeExpired(now)

	taskCopy := *task
	if taskCopy.Name == "" {
		taskCopy.Name = queuePath + "/tasks/" + uuid.NewString()
	}
	if taskCopy.Queue == "" {
		taskCopy.Queue = QueueID(queuePath)
	}

	if _, exists := m.entries[taskCopy.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyExists, taskCopy.Name)
	}

	m.entries[taskCopy.Name] = &memoryEntry{
		task:        taskCopy,
		status:      statusPending,
		retainUntil: now.Add(m.retention),
	}
	m.order = append(m.order, taskCopy.Name)
	return nil
}

// Tasks returns copies of all retained tasks in creation order.
func (m *MemoryTransport) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]Task, 0, len(m.order))
	for _, name := range m.order {
		tasks = append(tasks, m.entries[name].task)
	}
	return tasks
}

// Len returns the number of retained tasks.
func (m *MemoryTransport) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Due returns pending tasks whose schedule time has passed.
func (m *MemoryTransport) Due(now time.Time) []Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []Task
	for _, name := range m.order {
		e := m.entries[name]
		if e.status == statusPending && !e.task.DueAt().After(now) {
			due = append(due, e.task)
		}
	}
	return due
}

// ClaimDue implements WorkerSource. The earliest due task wins; tasks with an expired
// lease compete by lease expiry.
func (m *MemoryTransport) ClaimDue(ctx context.Context, queues []string, now time.Time, lease time.Duration) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var best *memoryEntry
	for _, name := range m.order {
		e := m.entries[name]
		if !e.claimable(now) {
			continue
		}
		if len(queues) > 0 && !slices.Contains(queues, e.task.Queue) {
			continue
		}
		if best == nil || e.claimOrder().Before(best.claimOrder()) {
			best = e
		}
	}
	if best == nil {
		return nil, ErrNoTaskToClaim
	}

	best.status = statusProcessing
	best.lockedUntil = now.Add(lease)
	taskCopy := best.task
	return &taskCopy, nil
}

// CompleteTask implements WorkerSource.
func (m *MemoryTransport) CompleteTask(ctx context.Context, task *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.setStatus(task, statusCompleted, nil)
}

// FailTask implements WorkerSource. A retry is scheduled at retryAt; a nil retryAt
// marks the task failed for good.
func (m *MemoryTransport) FailTask(ctx context.Context, task *Task, retryAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if retryAt == nil {
		return m.setStatus(task, statusFailed, nil)
	}
	return m.setStatus(task, statusPending, retryAt)
}

func (m *MemoryTransport) setStatus(task *Task, status taskStatus, retryAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[task.Name]
	if !ok {
		return fmt.Errorf("task %s not found", task.Name)
	}
	if e.status != statusProcessing {
		return fmt.Errorf("task %s is not in processing state", task.Name)
	}

	e.status = status
	e.lockedUntil = time.Time{}
	if retryAt != nil {
		t := *retryAt
		e.task.ScheduleTime = &t
		e.task.RetryCount++
	}
	return nil
}

// purgeExpired forgets finished tasks past their retention horizon so the names can be reused.
// Must be called with the mutex held.
func (m *MemoryTransport) purgeExpired(now time.Time) {
	m.order = slices.DeleteFunc(m.order, func(name string) bool {
		e := m.entries[name]
		if e.status == statusPending || e.status == statusProcessing || e.retainUntil.After(now) {
			return false
		}
		delete(m.entries, name)
		return true
	})
}
