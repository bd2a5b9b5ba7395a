package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskq/pkg/logger"
)

// Client schedules tasks against registered queues.
type Client struct {
	transport Transport
	registry  *Registry
	submitter *Submitter
	project   string
	region    string
	now       func() time.Time
	logger    *slog.Logger
}

// NewClient creates a new Client. The registry is shared read-only by every call.
func NewClient(transport Transport, registry *Registry, opts ...ClientOption) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}

	options := &clientOptions{
		project: "local",
		region:  "local",
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	submitOpts := append([]SubmitterOption{WithSubmitterLogger(options.logger)}, options.submitOpts...)

	return &Client{
		transport: transport,
		registry:  registry,
		submitter: NewSubmitter(submitOpts...),
		project:   options.project,
		region:    options.region,
		now:       options.now,
		logger:    options.logger,
	}, nil
}

// Registry returns the queue registry the client was built with.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Has reports whether the queue is registered.
func (c *Client) Has(queue string) bool {
	return c.registry.Has(queue)
}

// Queue returns a scheduling handle bound to one queue.
func (c *Client) Queue(name string) *Scheduler {
	return &Scheduler{client: c, queue: name}
}

// Resolve computes the task name and delay for a call without submitting anything.
func (c *Client) Resolve(queue string, payload any, opts ...ScheduleOption) (ResolvedSchedule, error) {
	req, err := buildRequest(queue, payload, opts)
	if err != nil {
		return ResolvedSchedule{}, err
	}
	return c.resolve(queue, req, c.now())
}

// Schedule submits the payload to the queue. Submitting a task whose name already
// exists succeeds without creating a second task.
func (c *Client) Schedule(ctx context.Context, queue string, payload any, opts ...ScheduleOption) error {
	req, err := buildRequest(queue, payload, opts)
	if err != nil {
		return err
	}

	now := c.now()
	resolved, err := c.resolve(queue, req, now)
	if err != nil {
		return err
	}

	body, err := EncodeEnvelope(req.Payload)
	if err != nil {
		return err
	}

	task := &Task{
		Queue:        queue,
		Body:         body,
		ScheduleTime: resolved.ScheduleTime(now),
		CreatedAt:    now,
	}
	if resolved.HasName {
		task.Name = TaskPath(c.project, c.region, queue, resolved.Name)
	}

	queuePath := QueuePath(c.project, c.region, queue)
	err = c.submitter.Submit(ctx, queue, resolved.Name, func(ctx context.Context) error {
		return c.transport.CreateTask(ctx, queuePath, task)
	})
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "task scheduled",
		logger.Queue(queue),
		logger.TaskName(resolved.Name),
		slog.Int("delay_seconds", resolved.DelaySeconds),
	)
	return nil
}

func (c *Client) resolve(queue string, req ScheduleRequest, now time.Time) (ResolvedSchedule, error) {
	cfg, _ := c.registry.Lookup(queue)

	name, hasName, err := ResolveIdentity(cfg, req.Name, req.Payload, now)
	if err != nil {
		return ResolvedSchedule{}, fmt.Errorf("resolve task name for queue %q: %w", queue, err)
	}

	delay, hasDelay := ResolveDelay(cfg.DeduplicationWindowSeconds, req.Delay)

	return ResolvedSchedule{
		Name:         name,
		HasName:      hasName,
		DelaySeconds: delay,
		HasDelay:     hasDelay,
	}, nil
}

func buildRequest(queue string, payload any, opts []ScheduleOption) (ScheduleRequest, error) {
	if queue == "" {
		return ScheduleRequest{}, ErrEmptyQueueName
	}
	if payload == nil {
		return ScheduleRequest{}, ErrPayloadNil
	}

	options := &scheduleOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return ScheduleRequest{
		Payload: payload,
		Name:    options.name,
		Delay:   int(options.delay / time.Second),
	}, nil
}

// Scheduler is a per-queue handle on a Client.
type Scheduler struct {
	client *Client
	queue  string
}

// Name returns the queue name.
func (s *Scheduler) Name() string {
	return s.queue
}

// Schedule submits the payload to the bound queue.
func (s *Scheduler) Schedule(ctx context.Context, payload any, opts ...ScheduleOption) error {
	return s.client.Schedule(ctx, s.queue, payload, opts...)
}

// Resolve computes the task name and delay without submitting.
func (s *Scheduler) Resolve(payload any, opts ...ScheduleOption) (ResolvedSchedule, error) {
	return s.client.Resolve(s.queue, payload, opts...)
}
