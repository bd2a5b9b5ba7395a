package taskhttp

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Headers set by Cloud Tasks on every push delivery.
const (
	HeaderQueueName      = "X-CloudTasks-QueueName"
	HeaderTaskName       = "X-CloudTasks-TaskName"
	HeaderRetryCount     = "X-CloudTasks-TaskRetryCount"
	HeaderExecutionCount = "X-CloudTasks-TaskExecutionCount"
	HeaderETA            = "X-CloudTasks-TaskETA"

	// HeaderQueue carries the logical queue name set by the cloudtasks transport.
	HeaderQueue = "X-Taskq-Queue"
)

// TaskInfo describes the delivery of a pushed task.
type TaskInfo struct {
	Queue          string
	Name           string
	RetryCount     int
	ExecutionCount int
	ETA            time.Time
}

type taskInfoKey struct{}

// FromContext returns the delivery info stored by the router, if any.
func FromContext(ctx context.Context) (TaskInfo, bool) {
	info, ok := ctx.Value(taskInfoKey{}).(TaskInfo)
	return info, ok
}

func withTaskInfo(ctx context.Context, info TaskInfo) context.Context {
	return context.WithValue(ctx, taskInfoKey{}, info)
}

func parseTaskInfo(r *http.Request, queue string) TaskInfo {
	info := TaskInfo{
		Queue: queue,
		Name:  r.Header.Get(HeaderTaskName),
	}
	if n, err := strconv.Atoi(r.Header.Get(HeaderRetryCount)); err == nil {
		info.RetryCount = n
	}
	if n, err := strconv.Atoi(r.Header.Get(HeaderExecutionCount)); err == nil {
		info.ExecutionCount = n
	}
	if eta, err := strconv.ParseFloat(r.Header.Get(HeaderETA), 64); err == nil {
		sec, frac := math.Modf(eta)
		info.ETA = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return info
}

// LoggerExtractor adds the pushed task name and retry count to log records made
// with a request context. Use it with logger.WithContextExtractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		info, ok := FromContext(ctx)
		if !ok || info.Name == "" {
			return slog.Attr{}, false
		}
		return slog.Group("push",
			slog.String("task", info.Name),
			slog.Int("retry_count", info.RetryCount),
		), true
	}
}
