package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

type taskDocument struct {
	ID           string     `bson:"_id"`
	Queue        string     `bson:"queue"`
	Name         string     `bson:"name"`
	Body         []byte     `bson:"body"`
	Status       string     `bson:"status"`
	ScheduleTime *time.Time `bson:"schedule_time,omitempty"`
	DueAt        time.Time  `bson:"due_at"`
	RetryCount   int        `bson:"retry_count"`
	CreatedAt    time.Time  `bson:"created_at"`
	// LockedUntil is the lease of a processing task; an expired lease is claimable again.
	LockedUntil *time.Time `bson:"locked_until,omitempty"`
	// PurgeAt is set once the task finishes; a TTL index removes the document then.
	PurgeAt *time.Time `bson:"purge_at,omitempty"`
}

func (d taskDocument) task() *queue.Task {
	return &queue.Task{
		Name:         d.Name,
		Queue:        d.Queue,
		Body:         d.Body,
		ScheduleTime: d.ScheduleTime,
		CreatedAt:    d.CreatedAt,
		RetryCount:   d.RetryCount,
	}
}

// Transport stores tasks in a collection keyed by "queue/name", so the unique _id
// index provides the duplicate check.
type Transport struct {
	coll      *mongo.Collection
	retention time.Duration
}

// NewTransport creates a Mongo-backed transport. A non-positive retention falls back
// to queue.DefaultRetention.
func NewTransport(coll *mongo.Collection, retention time.Duration) (*Transport, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	if retention <= 0 {
		retention = queue.DefaultRetention
	}
	return &Transport{coll: coll, retention: retention}, nil
}

// EnsureIndexes creates the TTL index that releases finished task names and the
// index used to find due tasks.
func (t *Transport) EnsureIndexes(ctx context.Context) error {
	_, err := t.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "purge_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "queue", Value: 1}, {Key: "due_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "queue", Value: 1}, {Key: "locked_until", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

// CreateTask implements queue.Transport.
func (t *Transport) CreateTask(ctx context.Context, queuePath string, task *queue.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	doc := taskDocument{
		Queue:        task.Queue,
		Name:         task.Name,
		Body:         task.Body,
		Status:       statusPending,
		ScheduleTime: task.ScheduleTime,
		CreatedAt:    task.CreatedAt,
	}
	if doc.Name == "" {
		doc.Name = queuePath + "/tasks/" + uuid.NewString()
	}
	if doc.Queue == "" {
		doc.Queue = queue.QueueID(queuePath)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.DueAt = doc.CreatedAt
	if doc.ScheduleTime != nil {
		doc.DueAt = *doc.ScheduleTime
	}
	doc.ID = doc.Queue + "/" + queue.TaskID(doc.Name)

	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, doc.Name)
		}
		return fmt.Errorf("insert task %s: %w", doc.Name, err)
	}
	return nil
}

// ClaimDue implements queue.WorkerSource. Due pending tasks are claimed before
// processing tasks with an expired lease.
func (t *Transport) ClaimDue(ctx context.Context, queues []string, now time.Time, lease time.Duration) (*queue.Task, error) {
	lockedUntil := now.Add(lease)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: statusProcessing},
		{Key: "locked_until", Value: lockedUntil},
	}}}

	candidates := []struct {
		filter bson.D
		sort   string
	}{
		{
			filter: bson.D{
				{Key: "status", Value: statusPending},
				{Key: "queue", Value: bson.D{{Key: "$in", Value: queues}}},
				{Key: "due_at", Value: bson.D{{Key: "$lte", Value: now}}},
			},
			sort: "due_at",
		},
		{
			filter: bson.D{
				{Key: "status", Value: statusProcessing},
				{Key: "queue", Value: bson.D{{Key: "$in", Value: queues}}},
				{Key: "locked_until", Value: bson.D{{Key: "$lte", Value: now}}},
			},
			sort: "locked_until",
		},
	}

	for _, c := range candidates {
		opts := options.FindOneAndUpdate().
			SetSort(bson.D{{Key: c.sort, Value: 1}}).
			SetReturnDocument(options.After)

		var doc taskDocument
		err := t.coll.FindOneAndUpdate(ctx, c.filter, update, opts).Decode(&doc)
		if err == nil {
			return doc.task(), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("claim task: %w", err)
		}
	}
	return nil, queue.ErrNoTaskToClaim
}

// CompleteTask implements queue.WorkerSource.
func (t *Transport) CompleteTask(ctx context.Context, task *queue.Task) error {
	return t.finish(ctx, task, statusCompleted)
}

// FailTask implements queue.WorkerSource.
func (t *Transport) FailTask(ctx context.Context, task *queue.Task, retryAt *time.Time) error {
	if retryAt == nil {
		return t.finish(ctx, task, statusFailed)
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: statusPending},
			{Key: "schedule_time", Value: *retryAt},
			{Key: "due_at", Value: *retryAt},
		}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
		{Key: "$inc", Value: bson.D{{Key: "retry_count", Value: 1}}},
	}
	return t.update(ctx, task, update)
}

func (t *Transport) finish(ctx context.Context, task *queue.Task, status string) error {
	purgeAt := task.CreatedAt.Add(t.retention)
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "purge_at", Value: purgeAt},
		}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
	}
	return t.update(ctx, task, update)
}

func (t *Transport) update(ctx context.Context, task *queue.Task, update bson.D) error {
	filter := bson.D{
		{Key: "_id", Value: task.Queue + "/" + task.ID()},
		{Key: "status", Value: statusProcessing},
	}
	res, err := t.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.Name, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s is not in %s state", task.Name, statusProcessing)
	}
	return nil
}
