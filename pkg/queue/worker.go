package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/taskq/pkg/logger"
)

// finishTimeout bounds the write that records a task outcome once the handler returned.
const finishTimeout = 10 * time.Second

// WorkerSource is a transport that can hand due tasks to a local Worker.
// Push transports (Cloud Tasks) deliver tasks over HTTP instead; see package taskhttp.
type WorkerSource interface {
	// ClaimDue atomically claims the earliest due task and leases it until now+lease,
	// or returns ErrNoTaskToClaim. A claimed task whose lease ran out is claimable again.
	ClaimDue(ctx context.Context, queues []string, now time.Time, lease time.Duration) (*Task, error)

	// CompleteTask marks a claimed task as done.
	CompleteTask(ctx context.Context, task *Task) error

	// FailTask releases a claimed task for retry at retryAt, or fails it for good when retryAt is nil.
	FailTask(ctx context.Context, task *Task, retryAt *time.Time) error
}

// Worker polls a WorkerSource and dispatches due tasks to the handler of their queue.
type Worker struct {
	source   WorkerSource
	handlers map[string]Handler
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex

	pullInterval time.Duration
	taskTimeout  time.Duration
	lockTimeout  time.Duration
	maxRetries   int
	backoff      BackoffStrategy
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewWorker creates a new task worker
func NewWorker(source WorkerSource, opts ...WorkerOption) (*Worker, error) {
	if source == nil {
		return nil, ErrTransportNil
	}

	options := &workerOptions{
		pullInterval:       time.Second,
		taskTimeout:        5 * time.Minute,
		lockTimeout:        10 * time.Minute,
		maxConcurrentTasks: 1,
		maxRetries:         3,
		backoff:            ExponentialBackoff{InitialInterval: 30 * time.Second, MaxInterval: 10 * time.Minute, Multiplier: 2},
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	// the lease must outlive the handler and the outcome write
	if minLock := options.taskTimeout + finishTimeout; options.lockTimeout < minLock {
		options.lockTimeout = minLock
	}

	return &Worker{
		source:       source,
		handlers:     make(map[string]Handler),
		workerID:     uuid.New(),
		sem:          make(chan struct{}, options.maxConcurrentTasks),
		pullInterval: options.pullInterval,
		taskTimeout:  options.taskTimeout,
		lockTimeout:  options.lockTimeout,
		maxRetries:   options.maxRetries,
		backoff:      options.backoff,
		logger:       options.logger.With(logger.Component("worker")),
	}, nil
}

// RegisterHandlers registers task handlers by queue. A later handler for the same
// queue replaces the earlier one.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Queue()] = h
		}
	}
}

// Start begins processing tasks in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)
	go w.run()

	w.logger.Info("worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Any("queues", w.queues()),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels polling and waits for in-flight tasks.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return errors.New("worker not started")
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	w.logger.Info("worker stopped", slog.String("worker_id", w.workerID.String()))
	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) queues() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.handlers))
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	queues := w.queues()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				// wg.Add must not race with Stop's wg.Wait
				w.stopMu.Lock()
				if w.stopping.Load() {
					w.stopMu.Unlock()
					<-w.sem
					return
				}
				w.wg.Add(1)
				w.stopMu.Unlock()

				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()

					if err := w.pullAndProcess(queues); err != nil {
						w.logger.Error("failed to process task",
							slog.String("worker_id", w.workerID.String()),
							logger.Error(err))
					}
				}()
			default:
			}
		}
	}
}

func (w *Worker) pullAndProcess(queues []string) error {
	task, err := w.source.ClaimDue(w.ctx, queues, time.Now(), w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoTaskToClaim) {
			return nil
		}
		return fmt.Errorf("failed to claim task: %w", err)
	}
	return w.processTask(task)
}

func (w *Worker) processTask(task *Task) (retErr error) {
	start := time.Now()
	log := w.logger.With(logger.Queue(task.Queue), logger.TaskName(task.ID()))

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
			log.Error("handler panicked", slog.Any("panic", r))
			_ = w.handleFailure(task, retErr, log)
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[task.Queue]
	w.mu.RUnlock()

	if !ok {
		log.Error("no handler registered for queue")
		fctx, fcancel := w.finishContext()
		defer fcancel()
		if err := w.source.FailTask(fctx, task, nil); err != nil {
			return fmt.Errorf("failed to mark task %s as failed: %w", task.Name, err)
		}
		return nil
	}

	// Detached from the worker context so shutdown lets running tasks finish
	ctx, cancel := context.WithTimeout(context.Background(), w.taskTimeout)
	defer cancel()

	if err := HandleTask(ctx, handler, task.Body); err != nil {
		return w.handleFailure(task, err, log)
	}

	fctx, fcancel := w.finishContext()
	defer fcancel()
	if err := w.source.CompleteTask(fctx, task); err != nil {
		return fmt.Errorf("failed to mark task %s as completed: %w", task.Name, err)
	}

	log.Info("task completed", logger.Duration(time.Since(start)))
	return nil
}

// handleFailure retries the task with backoff unless the payload is bad or retries are exhausted.
func (w *Worker) handleFailure(task *Task, execErr error, log *slog.Logger) error {
	ctx, cancel := w.finishContext()
	defer cancel()

	permanent := errors.Is(execErr, ErrInvalidPayload) || errors.Is(execErr, ErrInvalidEnvelope)

	if permanent || task.RetryCount >= w.maxRetries {
		log.Error("task failed",
			logger.RetryCount(task.RetryCount),
			logger.Error(execErr))
		if err := w.source.FailTask(ctx, task, nil); err != nil {
			return fmt.Errorf("failed to mark task %s as failed: %w", task.Name, err)
		}
		return nil
	}

	retryAt := time.Now().Add(w.backoff.NextInterval(task.RetryCount + 1))
	log.Warn("task failed, will retry",
		logger.RetryCount(task.RetryCount),
		slog.Time("retry_at", retryAt),
		logger.Error(execErr))

	if err := w.source.FailTask(ctx, task, &retryAt); err != nil {
		return fmt.Errorf("failed to reschedule task %s: %w", task.Name, err)
	}
	return nil
}

// finishContext outlives Stop so the outcome of a task that was already running still
// reaches the source.
func (w *Worker) finishContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(w.ctx), finishTimeout)
}
