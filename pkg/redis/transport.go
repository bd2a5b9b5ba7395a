package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

// createScript stores the body and schedule entry, then reserves the name. The name is
// written last so a failed store never leaves a reservation behind.
//
// KEYS: name, body, schedule. ARGV: id, task JSON, due ms, created ms, retention ms.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
redis.call('SET', KEYS[1], ARGV[4], 'PX', ARGV[5])
return 1
`)

// claimScript moves a member whose score is not after now from KEYS[1] into the
// processing set KEYS[2], scored by its lease expiry.
//
// ARGV: id, now ms, lease expiry ms.
var claimScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) > tonumber(ARGV[2]) then
	return 0
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
return 1
`)

// Transport stores tasks in Redis.
//
// Keys per queue, sharing the {queue} hash tag so scripts stay on one cluster slot:
//
//	<prefix>:{<queue>}:name:<id>    reservation with the retention TTL
//	<prefix>:{<queue>}:schedule     sorted set of task ids scored by due time (unix ms)
//	<prefix>:{<queue>}:processing   sorted set of claimed task ids scored by lease expiry
//	<prefix>:{<queue>}:body         hash of task id to JSON-encoded task
//	<prefix>:{<queue>}:dead         list of permanently failed tasks
//
// The reservation key outlives the task itself, so a name stays blocked for the whole
// retention horizon even after the task ran.
type Transport struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(t *Transport) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithRetention sets how long a task name blocks duplicates.
func WithRetention(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.retention = d
		}
	}
}

// WithConfig applies KeyPrefix and Retention from cfg.
func WithConfig(cfg Config) Option {
	return func(t *Transport) {
		WithKeyPrefix(cfg.KeyPrefix)(t)
		WithRetention(cfg.Retention)(t)
	}
}

// NewTransport creates a Redis-backed transport.
func NewTransport(client redis.UniversalClient, opts ...Option) (*Transport, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	t := &Transport{
		client:    client,
		prefix:    "taskq",
		retention: queue.DefaultRetention,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// CreateTask implements queue.Transport.
func (t *Transport) CreateTask(ctx context.Context, queuePath string, task *queue.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	stored := *task
	if stored.Name == "" {
		stored.Name = queuePath + "/tasks/" + uuid.NewString()
	}
	if stored.Queue == "" {
		stored.Queue = queue.QueueID(queuePath)
	}
	id := stored.ID()

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", stored.Name, err)
	}

	created, err := createScript.Run(ctx, t.client,
		[]string{t.nameKey(stored.Queue, id), t.bodyKey(stored.Queue), t.scheduleKey(stored.Queue)},
		id, data, stored.DueAt().UnixMilli(), stored.CreatedAt.UnixMilli(), t.retention.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("store task %s: %w", stored.Name, err)
	}
	if created == 0 {
		return fmt.Errorf("%w: %s", queue.ErrTaskAlreadyExists, stored.Name)
	}
	return nil
}

// ClaimDue implements queue.WorkerSource. The earliest due task across queues wins;
// claimed tasks whose lease expired compete by lease expiry.
func (t *Transport) ClaimDue(ctx context.Context, queues []string, now time.Time, lease time.Duration) (*queue.Task, error) {
	var (
		bestQueue string
		bestKey   string
		bestID    string
		bestScore float64
	)

	maxScore := strconv.FormatInt(now.UnixMilli(), 10)
	for _, q := range queues {
		for _, key := range []string{t.scheduleKey(q), t.processingKey(q)} {
			res, err := t.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
				Min:   "-inf",
				Max:   maxScore,
				Count: 1,
			}).Result()
			if err != nil {
				return nil, fmt.Errorf("scan due tasks of %s: %w", q, err)
			}
			if len(res) == 0 {
				continue
			}
			if bestID == "" || res[0].Score < bestScore {
				bestQueue, bestKey, bestScore = q, key, res[0].Score
				bestID, _ = res[0].Member.(string)
			}
		}
	}
	if bestID == "" {
		return nil, queue.ErrNoTaskToClaim
	}

	claimed, err := claimScript.Run(ctx, t.client,
		[]string{bestKey, t.processingKey(bestQueue)},
		bestID, now.UnixMilli(), now.Add(lease).UnixMilli(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("claim task %s: %w", bestID, err)
	}
	if claimed == 0 {
		// another worker won the race
		return nil, queue.ErrNoTaskToClaim
	}

	data, err := t.client.HGet(ctx, t.bodyKey(bestQueue), bestID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrTaskBodyMissing, bestID)
		}
		return nil, fmt.Errorf("load task %s: %w", bestID, err)
	}

	var task queue.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", bestID, err)
	}
	return &task, nil
}

// CompleteTask implements queue.WorkerSource.
func (t *Transport) CompleteTask(ctx context.Context, task *queue.Task) error {
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, t.processingKey(task.Queue), task.ID())
		pipe.HDel(ctx, t.bodyKey(task.Queue), task.ID())
		return nil
	})
	if err != nil {
		return fmt.Errorf("complete task %s: %w", task.Name, err)
	}
	return nil
}

// FailTask implements queue.WorkerSource. Permanently failed tasks move to the dead list.
func (t *Transport) FailTask(ctx context.Context, task *queue.Task, retryAt *time.Time) error {
	id := task.ID()

	if retryAt == nil {
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("encode task %s: %w", task.Name, err)
		}
		_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, t.processingKey(task.Queue), id)
			pipe.HDel(ctx, t.bodyKey(task.Queue), id)
			pipe.LPush(ctx, t.deadKey(task.Queue), data)
			return nil
		})
		if err != nil {
			return fmt.Errorf("fail task %s: %w", task.Name, err)
		}
		return nil
	}

	retry := *task
	at := *retryAt
	retry.ScheduleTime = &at
	retry.RetryCount++

	data, err := json.Marshal(retry)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.Name, err)
	}
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, t.processingKey(task.Queue), id)
		pipe.HSet(ctx, t.bodyKey(task.Queue), id, data)
		pipe.ZAdd(ctx, t.scheduleKey(task.Queue), redis.Z{Score: float64(at.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("reschedule task %s: %w", task.Name, err)
	}
	return nil
}

// Pending returns the number of scheduled tasks of a queue, due or not. Claimed tasks
// are not counted.
func (t *Transport) Pending(ctx context.Context, queueName string) (int64, error) {
	return t.client.ZCard(ctx, t.scheduleKey(queueName)).Result()
}

// Dead returns the number of permanently failed tasks of a queue.
func (t *Transport) Dead(ctx context.Context, queueName string) (int64, error) {
	return t.client.LLen(ctx, t.deadKey(queueName)).Result()
}

func (t *Transport) nameKey(queueName, id string) string {
	return t.queueKey(queueName) + ":name:" + id
}

func (t *Transport) scheduleKey(queueName string) string {
	return t.queueKey(queueName) + ":schedule"
}

func (t *Transport) processingKey(queueName string) string {
	return t.queueKey(queueName) + ":processing"
}

func (t *Transport) bodyKey(queueName string) string {
	return t.queueKey(queueName) + ":body"
}

func (t *Transport) deadKey(queueName string) string {
	return t.queueKey(queueName) + ":dead"
}

func (t *Transport) queueKey(queueName string) string {
	return t.prefix + ":{" + queueName + "}"
}
