// Package redis connects to Redis and provides a Redis-backed task transport.
//
// Connect retries the initial ping according to Config, and Healthcheck returns a
// probe closure for readiness checks.
//
// # Transport
//
// Transport implements queue.Transport. CreateTask runs a single Lua script that
// checks the name reservation, stores the body and schedule entry, and only then
// reserves the name for the retention horizon. Two concurrent submissions of the same
// name yield exactly one task, and a store that fails leaves the name free, so the
// next attempt cannot mistake a lost task for a duplicate.
//
// Transport also implements queue.WorkerSource. A claim moves the task id from the
// schedule set into a processing set scored by lease expiry; completing or failing the
// task removes it again, and an id whose lease expired is claimable by the next worker.
//
// Every key of a queue carries the {queue} hash tag, so the scripts work on Redis
// Cluster as well:
//
//	taskq:{emails}:name:<id>    reservation
//	taskq:{emails}:schedule     due time per task id
//	taskq:{emails}:processing   lease expiry per claimed task id
//	taskq:{emails}:body         task JSON per task id
//	taskq:{emails}:dead         permanently failed tasks
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	transport, err := redis.NewTransport(client, redis.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	scheduler, err := queue.NewClient(transport, registry)
//
// # Configuration
//
//	REDIS_URL               redis://:password@localhost:6379/0
//	REDIS_RETRY_ATTEMPTS    ping attempts on connect, 3
//	REDIS_RETRY_INTERVAL    wait between attempts, 5s
//	REDIS_CONNECT_TIMEOUT   bound on the whole connect, 30s
//	REDIS_TASKQ_PREFIX      key namespace, taskq
//	REDIS_TASKQ_RETENTION   how long a name blocks duplicates, 4h
//
// # Error Handling
//
// Connect and Healthcheck join go-redis failures with ErrFailedToParseRedisConnString,
// ErrRedisNotReady or ErrHealthcheckFailed. CreateTask wraps name conflicts with
// queue.ErrTaskAlreadyExists and every other failure with fmt.Errorf, so the submitter
// retries them. ClaimDue returns queue.ErrNoTaskToClaim when nothing is due and
// ErrTaskBodyMissing when a claimed id has no stored body.
package redis
