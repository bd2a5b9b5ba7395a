package cloudtasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/cloudtasks/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

// QueueHeader carries the queue name on pushed requests.
const QueueHeader = "X-Taskq-Queue"

// Transport creates HTTP-target tasks in Google Cloud Tasks. The service keeps task
// names reserved for a while after the task ran, which is what collapses duplicate
// submissions.
type Transport struct {
	svc *cloudtasks.Service
	cfg Config
}

// New creates the API client from cfg and wraps it in a Transport.
// Extra client options are applied after the ones derived from cfg.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Transport, error) {
	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := cloudtasks.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, err)
	}
	return NewTransport(svc, cfg)
}

// NewTransport wraps an existing service.
func NewTransport(svc *cloudtasks.Service, cfg Config) (*Transport, error) {
	if svc == nil {
		return nil, ErrNilService
	}
	if cfg.TargetURL == "" {
		return nil, ErrEmptyTargetURL
	}
	return &Transport{svc: svc, cfg: cfg}, nil
}

// CreateTask implements queue.Transport. HTTP 409 from the API means the name is
// taken and is reported as queue.ErrTaskAlreadyExists.
func (t *Transport) CreateTask(ctx context.Context, queuePath string, task *queue.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	queueName := task.Queue
	if queueName == "" {
		queueName = queue.QueueID(queuePath)
	}

	req := &cloudtasks.CreateTaskRequest{Task: t.buildTask(queueName, task)}

	_, err := t.svc.Projects.Locations.Queues.Tasks.Create(queuePath, req).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, task.Name)
		}
		return fmt.Errorf("create cloud task in %s: %w", queuePath, err)
	}
	return nil
}

func (t *Transport) buildTask(queueName string, task *queue.Task) *cloudtasks.Task {
	httpReq := &cloudtasks.HttpRequest{
		Url:        TargetURL(t.cfg.TargetURL, queueName),
		HttpMethod: http.MethodPost,
		// Task.Body is already base64, which is what the JSON API expects
		Body: string(task.Body),
		Headers: map[string]string{
			"Content-Type": "application/json",
			QueueHeader:    queueName,
		},
	}
	if t.cfg.ServiceAccountEmail != "" {
		audience := t.cfg.Audience
		if audience == "" {
			audience = t.cfg.TargetURL
		}
		httpReq.OidcToken = &cloudtasks.OidcToken{
			ServiceAccountEmail: t.cfg.ServiceAccountEmail,
			Audience:            audience,
		}
	}

	ct := &cloudtasks.Task{
		Name:        task.Name,
		HttpRequest: httpReq,
	}
	if task.ScheduleTime != nil {
		ct.ScheduleTime = task.ScheduleTime.UTC().Format(time.RFC3339Nano)
	}
	if t.cfg.DispatchDeadline > 0 {
		ct.DispatchDeadline = strconv.FormatInt(int64(t.cfg.DispatchDeadline/time.Second), 10) + "s"
	}
	return ct
}

// Healthcheck returns a probe that reads the queue resource.
func (t *Transport) Healthcheck(queuePath string) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := t.svc.Projects.Locations.Queues.Get(queuePath).Context(ctx).Do(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// TargetURL joins the base push URL and the queue name.
func TargetURL(base, queueName string) string {
	return strings.TrimRight(base, "/") + "/" + queueName
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}
