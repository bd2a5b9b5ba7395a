package queue

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrTransportNil is returned when a nil transport is provided
	ErrTransportNil = errors.New("transport cannot be nil")

	// ErrRegistryNil is returned when a nil registry is provided
	ErrRegistryNil = errors.New("registry cannot be nil")

	// ErrPayloadNil is returned when attempting to schedule a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when payload cannot be canonically serialized
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrInvalidWindow is returned for a negative deduplication window
	ErrInvalidWindow = errors.New("deduplication window must not be negative")

	// ErrEmptyQueueName is returned when a queue is registered or scheduled without a name
	ErrEmptyQueueName = errors.New("queue name cannot be empty")

	// ErrTaskAlreadyExists is the conflict signal transports return when a task with the
	// same name already exists (or existed within the transport's retention horizon).
	ErrTaskAlreadyExists = errors.New("task already exists")

	// ErrSubmissionFailed is returned when the retry budget is exhausted
	ErrSubmissionFailed = errors.New("task submission failed")

	// ErrInvalidEnvelope is returned when a task body cannot be decoded
	ErrInvalidEnvelope = errors.New("invalid task envelope")

	// ErrInvalidPayload is returned when a decoded payload fails validation
	ErrInvalidPayload = errors.New("invalid task payload")

	// ErrHandlerNotFound is returned when no handler is registered for a queue
	ErrHandlerNotFound = errors.New("no handler registered for queue")

	// ErrNoHandlers is returned when worker has no handlers registered
	ErrNoHandlers = errors.New("no task handlers registered")

	// ErrNoTaskToClaim is returned when no due task is available
	ErrNoTaskToClaim = errors.New("no task available to claim")
)

// SubmissionError is the terminal failure of a scheduling call.
type SubmissionError struct {
	Queue    string
	Task     string
	Attempts int
	Err      error
}

func (e *SubmissionError) Error() string {
	name := e.Task
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("submit task %s to queue %q after %d attempts: %v", name, e.Queue, e.Attempts, e.Err)
}

func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmissionFailed, e.Err}
}

// IsAlreadyExists reports whether err carries the transport conflict signal.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrTaskAlreadyExists)
}
