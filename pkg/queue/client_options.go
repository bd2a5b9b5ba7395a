package queue

import (
	"log/slog"
	"time"
)

// ClientOption is a functional option for configuring a Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	project    string
	region     string
	now        func() time.Time
	logger     *slog.Logger
	submitOpts []SubmitterOption
}

// WithLocation sets the project and region used to build queue and task paths.
func WithLocation(project, region string) ClientOption {
	return func(o *clientOptions) {
		if project != "" {
			o.project = project
		}
		if region != "" {
			o.region = region
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger for the client and its submitter.
func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSubmitOptions configures the submission retry loop.
func WithSubmitOptions(opts ...SubmitterOption) ClientOption {
	return func(o *clientOptions) {
		o.submitOpts = append(o.submitOpts, opts...)
	}
}

// WithConfig applies location and retry settings from Config.
func WithConfig(cfg Config) ClientOption {
	return func(o *clientOptions) {
		WithLocation(cfg.Project, cfg.Region)(o)
		o.submitOpts = append(o.submitOpts,
			WithMaxAttempts(cfg.SubmitMaxAttempts),
			WithBackoff(cfg.Backoff()),
		)
	}
}

// ScheduleOption is a functional option for a single scheduling call
type ScheduleOption func(*scheduleOptions)

type scheduleOptions struct {
	name  string
	delay time.Duration
}

// WithName sets the task name, enabling manual deduplication.
func WithName(name string) ScheduleOption {
	return func(o *scheduleOptions) {
		o.name = name
	}
}

// WithDelay asks for the task to run after d, truncated to whole seconds. A positive
// delay under a second becomes one second rather than no delay at all.
// Ignored on queues with a deduplication window.
func WithDelay(d time.Duration) ScheduleOption {
	return func(o *scheduleOptions) {
		switch {
		case d <= 0:
		case d < time.Second:
			o.delay = time.Second
		default:
			o.delay = d
		}
	}
}
