package jetstream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

// Headers set on every published task.
const (
	QueueHeader        = "Taskq-Queue"
	TaskNameHeader     = "Taskq-Task-Name"
	ScheduleTimeHeader = "Taskq-Schedule-Time"
	CreatedAtHeader    = "Taskq-Created-At"
)

// Publisher is the part of the JetStream client the transport uses.
type Publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error)
}

// Transport publishes tasks to a JetStream stream. Named tasks carry the name as
// Nats-Msg-Id, so the server drops repeats inside the stream's duplicate window and
// flags the ack as a duplicate.
type Transport struct {
	js     Publisher
	prefix string
}

// NewTransport creates a JetStream transport publishing to "{prefix}.{queue}".
func NewTransport(js Publisher, subjectPrefix string) (*Transport, error) {
	if js == nil {
		return nil, ErrNilPublisher
	}
	if subjectPrefix == "" {
		subjectPrefix = "taskq"
	}
	return &Transport{js: js, prefix: subjectPrefix}, nil
}

// CreateTask implements queue.Transport.
func (t *Transport) CreateTask(ctx context.Context, queuePath string, task *queue.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	queueName := task.Queue
	if queueName == "" {
		queueName = queue.QueueID(queuePath)
	}

	msg := nats.NewMsg(t.Subject(queueName))
	msg.Data = task.Body
	msg.Header.Set(QueueHeader, queueName)
	if !task.CreatedAt.IsZero() {
		msg.Header.Set(CreatedAtHeader, strconv.FormatInt(task.CreatedAt.UnixMilli(), 10))
	}
	if task.ScheduleTime != nil {
		msg.Header.Set(ScheduleTimeHeader, task.ScheduleTime.UTC().Format(time.RFC3339Nano))
	}

	var opts []natsjs.PublishOpt
	if task.Name != "" {
		msg.Header.Set(TaskNameHeader, task.Name)
		opts = append(opts, natsjs.WithMsgID(task.Name))
	}

	ack, err := t.js.PublishMsg(ctx, msg, opts...)
	if err != nil {
		return fmt.Errorf("publish task to %s: %w", msg.Subject, err)
	}
	if ack != nil && ack.Duplicate {
		return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, task.Name)
	}
	return nil
}

// Subject returns the subject tasks of a queue are published to.
func (t *Transport) Subject(queueName string) string {
	return t.prefix + "." + queueName
}

// ScheduleTime reads the schedule time header of a consumed message.
// The second result is false when the task should run immediately.
func ScheduleTime(header nats.Header) (time.Time, bool) {
	v := header.Get(ScheduleTimeHeader)
	if v == "" {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
