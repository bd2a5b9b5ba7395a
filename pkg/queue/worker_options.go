package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pullInterval       time.Duration
	taskTimeout        time.Duration
	lockTimeout        time.Duration
	maxConcurrentTasks int
	maxRetries         int
	backoff            BackoffStrategy
	logger             *slog.Logger
}

// WithPullInterval sets how often the worker checks for due tasks
func WithPullInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithTaskTimeout bounds a single handler run
func WithTaskTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithLockTimeout sets how long a claimed task stays leased to this worker. A task
// whose lease expires is handed to the next claim. The lease never drops below the
// task timeout plus the time allowed for recording the outcome.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithMaxConcurrentTasks sets the maximum number of concurrent tasks
func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrentTasks = n
		}
	}
}

// WithMaxRetries sets how many times a failed task is retried (0-10)
func WithMaxRetries(n int) WorkerOption {
	return func(o *workerOptions) {
		if n >= 0 && n <= 10 {
			o.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the delay strategy for failed tasks
func WithRetryBackoff(strategy BackoffStrategy) WorkerOption {
	return func(o *workerOptions) {
		if strategy != nil {
			o.backoff = strategy
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
