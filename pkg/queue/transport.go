package queue

import (
	"context"
	"strings"
)

// Transport is the remote service that durably stores tasks and later dispatches them.
//
// CreateTask must be idempotent on task.Name: creating a name that already exists in
// the queue (or existed within the transport's retention horizon) returns an error
// wrapping ErrTaskAlreadyExists. A task without a name is always created.
type Transport interface {
	CreateTask(ctx context.Context, queuePath string, task *Task) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, queuePath string, task *Task) error

// CreateTask calls f.
func (f TransportFunc) CreateTask(ctx context.Context, queuePath string, task *Task) error {
	return f(ctx, queuePath, task)
}

// QueuePath returns the fully qualified queue resource name.
func QueuePath(project, region, queue string) string {
	return "projects/" + project + "/locations/" + region + "/queues/" + queue
}

// TaskPath returns the fully qualified task resource name.
func TaskPath(project, region, queue, name string) string {
	return QueuePath(project, region, queue) + "/tasks/" + name
}

// TaskID returns the last segment of a task path.
func TaskID(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// QueueID returns the queue name from a queue or task path.
func QueueID(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "queues" {
			return parts[i+1]
		}
	}
	return path
}
