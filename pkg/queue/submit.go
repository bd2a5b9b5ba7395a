package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskq/pkg/logger"
)

// CreateFunc performs one idempotent creation attempt at the transport.
type CreateFunc func(ctx context.Context) error

// Attempt describes a finished submission attempt.
type Attempt struct {
	Number int
	Delay  time.Duration // wait before the next attempt, zero when none follows
	Err    error
}

// AttemptHook is called after each submission attempt.
type AttemptHook func(Attempt)

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeDeduplicated
	outcomeRetryable
	outcomeTerminal
)

// classify tags the result of one attempt. The conflict signal ends the loop as success.
func classify(ctx context.Context, err error) outcome {
	switch {
	case err == nil:
		return outcomeSucceeded
	case IsAlreadyExists(err):
		return outcomeDeduplicated
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
		return outcomeTerminal
	default:
		return outcomeRetryable
	}
}

// Submitter wraps transport calls in a bounded retry loop with exponential backoff.
// It is stateless between calls and safe for concurrent use.
type Submitter struct {
	maxAttempts int
	backoff     BackoffStrategy
	logger      *slog.Logger
	onAttempt   AttemptHook
}

// NewSubmitter creates a Submitter.
func NewSubmitter(opts ...SubmitterOption) *Submitter {
	options := &submitterOptions{
		maxAttempts: 5,
		backoff:     DefaultBackoffStrategy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Submitter{
		maxAttempts: options.maxAttempts,
		backoff:     options.backoff,
		logger:      options.logger,
		onAttempt:   options.onAttempt,
	}
}

// MaxAttempts returns the attempt cap.
func (s *Submitter) MaxAttempts() int {
	return s.maxAttempts
}

// Submit runs create until it succeeds, reports that the task already exists, or the
// attempt budget runs out. An already-exists conflict is success: the task was created
// by an earlier or concurrent call. Exhaustion returns a *SubmissionError.
func (s *Submitter) Submit(ctx context.Context, queue, task string, create CreateFunc) error {
	log := s.logger.With(logger.Queue(queue), logger.TaskName(task))

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := create(ctx)

		switch classify(ctx, err) {
		case outcomeSucceeded:
			s.notify(Attempt{Number: attempt})
			return nil

		case outcomeDeduplicated:
			s.notify(Attempt{Number: attempt, Err: err})
			log.InfoContext(ctx, "task already exists, skipping",
				logger.Attempt(attempt),
			)
			return nil

		case outcomeTerminal:
			s.notify(Attempt{Number: attempt, Err: err})
			serr := &SubmissionError{Queue: queue, Task: task, Attempts: attempt, Err: err}
			log.ErrorContext(ctx, "task submission aborted", logger.Attempt(attempt), logger.Error(err))
			return serr
		}

		lastErr = err
		remaining := s.maxAttempts - attempt
		if remaining == 0 {
			s.notify(Attempt{Number: attempt, Err: err})
			break
		}

		delay := s.backoff.NextInterval(attempt)
		s.notify(Attempt{Number: attempt, Delay: delay, Err: err})
		log.WarnContext(ctx, "task submission failed, retrying",
			logger.Attempt(attempt),
			logger.Remaining(remaining),
			logger.Duration(delay),
			logger.Error(err),
		)

		if err := sleep(ctx, delay); err != nil {
			serr := &SubmissionError{Queue: queue, Task: task, Attempts: attempt, Err: errors.Join(lastErr, err)}
			log.ErrorContext(ctx, "task submission aborted", logger.Attempt(attempt), logger.Error(err))
			return serr
		}
	}

	serr := &SubmissionError{Queue: queue, Task: task, Attempts: s.maxAttempts, Err: lastErr}
	log.ErrorContext(ctx, "task submission failed",
		logger.Attempt(s.maxAttempts),
		logger.Error(lastErr),
	)
	return serr
}

func (s *Submitter) notify(a Attempt) {
	if s.onAttempt != nil {
		s.onAttempt(a)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SubmitterOption is a functional option for configuring a Submitter
type SubmitterOption func(*submitterOptions)

type submitterOptions struct {
	maxAttempts int
	backoff     BackoffStrategy
	logger      *slog.Logger
	onAttempt   AttemptHook
}

// WithMaxAttempts sets the attempt cap (first attempt included).
func WithMaxAttempts(n int) SubmitterOption {
	return func(o *submitterOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(strategy BackoffStrategy) SubmitterOption {
	return func(o *submitterOptions) {
		if strategy != nil {
			o.backoff = strategy
		}
	}
}

// WithSubmitterLogger sets the logger for submission events.
func WithSubmitterLogger(l *slog.Logger) SubmitterOption {
	return func(o *submitterOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAttemptHook registers a callback invoked after every attempt.
// Useful for metrics.
func WithAttemptHook(hook AttemptHook) SubmitterOption {
	return func(o *submitterOptions) {
		o.onAttempt = hook
	}
}
