package queue

import (
	"time"
)

// TaskConfig is the deduplication policy of a single queue.
type TaskConfig struct {
	// DeduplicationWindowSeconds coalesces identical payloads submitted within the window
	// into one task delayed by the window length. Zero disables windowing.
	DeduplicationWindowSeconds int `json:"deduplication_window_seconds" yaml:"deduplication_window_seconds" toml:"deduplication_window_seconds"`

	// UseDeduplication derives task names from payload content when no name is given.
	// Implied by a positive window.
	UseDeduplication bool `json:"use_deduplication" yaml:"use_deduplication" toml:"use_deduplication"`
}

// Effective reports whether deduplication applies to the queue.
func (c TaskConfig) Effective() bool {
	return c.UseDeduplication || c.DeduplicationWindowSeconds > 0
}

// Window returns the deduplication window as a duration.
func (c TaskConfig) Window() time.Duration {
	return time.Duration(c.DeduplicationWindowSeconds) * time.Second
}

// Validate checks the config invariants.
func (c TaskConfig) Validate() error {
	if c.DeduplicationWindowSeconds < 0 {
		return ErrInvalidWindow
	}
	return nil
}

// ScheduleRequest describes one scheduling call.
type ScheduleRequest struct {
	Payload any
	// Name is the caller-supplied task name; empty means absent.
	Name string
	// Delay is the explicit delay in whole seconds; non-positive means absent.
	Delay int
}

// ResolvedSchedule is the outcome of identity and schedule-time resolution.
type ResolvedSchedule struct {
	Name         string
	HasName      bool
	DelaySeconds int
	HasDelay     bool
}

// ScheduleTime returns the absolute execution time, or nil for "as soon as possible".
func (r ResolvedSchedule) ScheduleTime(now time.Time) *time.Time {
	if !r.HasDelay {
		return nil
	}
	t := now.Add(time.Duration(r.DelaySeconds) * time.Second)
	return &t
}

// Task is the value handed to a Transport.
type Task struct {
	// Name is the fully qualified task name (see TaskPath). Empty lets the transport assign one.
	Name         string     `json:"name,omitempty"`
	Queue        string     `json:"queue"`
	Body         []byte     `json:"body"`
	ScheduleTime *time.Time `json:"schedule_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RetryCount   int        `json:"retry_count,omitempty"`
}

// ID returns the short task name without the queue path prefix.
func (t *Task) ID() string {
	return TaskID(t.Name)
}

// DueAt returns when the task becomes eligible for execution.
func (t *Task) DueAt() time.Time {
	if t.ScheduleTime != nil {
		return *t.ScheduleTime
	}
	return t.CreatedAt
}
