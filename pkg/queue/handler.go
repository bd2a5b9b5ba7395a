package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type (
	// Handler executes tasks of one queue.
	Handler interface {
		// Queue returns the queue the handler serves.
		Queue() string
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

	// Validatable payloads are checked before the handler runs.
	Validatable interface {
		Validate() error
	}
)

// NewTaskHandler creates a typed handler for the queue.
// An empty queue name defaults to the payload type name.
func NewTaskHandler[T any](queue string, handler TaskHandlerFunc[T]) Handler {
	if queue == "" {
		var payload T
		queue = qualifiedStructName(payload)
	}
	return &taskHandler[T]{
		queue:   queue,
		handler: handler,
	}
}

type taskHandler[T any] struct {
	queue   string
	handler TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Queue() string {
	return h.queue
}

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if v, ok := any(&t).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	} else if v, ok := any(t).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	return h.handler(ctx, t)
}

// HandleTask decodes a task body and runs the handler on its payload.
func HandleTask(ctx context.Context, h Handler, body []byte) error {
	payload, err := DecodeEnvelope(body)
	if err != nil {
		return err
	}
	return h.Handle(ctx, payload)
}

// qualifiedStructName returns "pkg.Type" for v, dropping pointer markers.
func qualifiedStructName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
