// Package queue schedules deferred tasks on remote queues and collapses logically
// identical submissions into a single task.
//
// The package is organised around a few small pieces:
//
//   - Registry: queue name to TaskConfig, built once and read-only afterwards
//   - DeriveIdentity: md5 fingerprint of the payload's canonical JSON encoding
//   - WindowBoundary: epoch-aligned window index used to suffix task names
//   - ResolveIdentity: decides the final task name from policy, caller name and payload
//   - ResolveDelay: a deduplication window always overrides an explicit delay
//   - Submitter: bounded exponential-backoff retry that treats "already exists" as success
//   - Client: ties the pieces together and talks to a Transport
//   - Worker: claims due tasks from a WorkerSource and runs the Handler of their queue
//
// Transports only need to create a task and report name conflicts by wrapping
// ErrTaskAlreadyExists. MemoryTransport lives in this package; remote transports live
// in sibling packages (cloudtasks, redis, pg, mongo, jetstream).
//
// # Architecture
//
//  1. Resolution is pure: identity and schedule time are computed from the queue policy,
//     the caller's name and delay, the payload and one clock reading. Nothing touches the
//     network until resolution succeeds.
//  2. The transport owns duplicate detection. A conflict on the task name is the only
//     signal the engine relies on, so two processes scheduling the same payload need no
//     coordination beyond the remote queue.
//  3. Submission retries transient failures with backoff and jitter. A conflict on any
//     attempt, including one after an earlier attempt timed out but actually landed, is
//     a successful deduplication.
//  4. The Worker is optional. Push transports (Cloud Tasks) deliver tasks over HTTP, see
//     package taskhttp; pull transports (memory, redis, pg, mongo) implement WorkerSource.
//
// # Deduplication
//
// A queue with UseDeduplication names each task after the fingerprint of its payload,
// so resubmitting the same payload hits a name conflict at the transport. A queue with
// a positive DeduplicationWindowSeconds additionally suffixes the name with the window
// index and delays the task by the full window, so a burst of identical submissions
// collapses into one execution after the window. A caller-supplied name replaces the
// fingerprint and still gets the window suffix.
//
// The fingerprint is md5 over compact JSON with sorted map keys and no HTML escaping.
// Strings, []byte and json.RawMessage are hashed as they are.
//
// # Usage
//
//	registry, err := queue.NewRegistry(map[string]queue.TaskConfig{
//	    "send_email": {DeduplicationWindowSeconds: 60},
//	    "audit":      {},
//	})
//	if err != nil {
//	    return err
//	}
//
//	client, err := queue.NewClient(transport, registry,
//	    queue.WithLocation("my-project", "europe-west1"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Collapsed with identical payloads scheduled in the same minute
//	err = client.Schedule(ctx, "send_email", SendEmail{To: "user@example.com"})
//
//	// Runs once per name, roughly 30 seconds from now
//	err = client.Schedule(ctx, "audit", entry,
//	    queue.WithName("audit-"+entry.ID),
//	    queue.WithDelay(30*time.Second),
//	)
//
// Running tasks from a pull transport:
//
//	w, err := queue.NewWorker(transport,
//	    queue.WithMaxConcurrentTasks(10),
//	    queue.WithLockTimeout(10*time.Minute),
//	)
//	if err != nil {
//	    return err
//	}
//	w.RegisterHandlers(queue.NewTaskHandler("send_email", sendEmail))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(w.Run(ctx))
//	return g.Wait()
//
// # Configuration
//
// Config is loaded from the environment with config.Load:
//
//	TASKQ_BACKEND                      transport name (memory, redis, pg, mongo, cloudtasks, jetstream)
//	TASKQ_PROJECT, TASKQ_REGION        location used to build queue paths
//	TASKQ_DEFINITIONS_FILE             YAML, TOML or JSON file with per-queue TaskConfig
//	TASKQ_SUBMIT_MAX_ATTEMPTS          submission attempts, 5 by default
//	TASKQ_SUBMIT_INITIAL_DELAY         first retry delay, 100ms
//	TASKQ_SUBMIT_MAX_DELAY             retry delay cap, 5s
//	TASKQ_SUBMIT_JITTER                jitter factor in [0, 1], 0.2
//	TASKQ_WORKER_POLL_INTERVAL         how often a worker looks for due tasks, 1s
//	TASKQ_WORKER_MAX_CONCURRENT_TASKS  handlers running at once, 10
//	TASKQ_WORKER_TASK_TIMEOUT          deadline of a single handler run, 5m
//	TASKQ_WORKER_LOCK_TIMEOUT          lease of a claimed task, 10m
//
// WithConfig applies the submission settings to a Client. A definitions file looks like:
//
//	queues:
//	  send_email:
//	    deduplication_window_seconds: 60
//	  rebuild_index:
//	    use_deduplication: true
//
// # Worker Leases
//
// Each claim leases the task for the lock timeout. A task whose lease expires, because
// its worker crashed or lost the connection, is claimed again by the next poll, so
// delivery is at least once. Stop cancels polling and waits for running handlers; their
// outcome is still recorded because the completion write does not use the cancelled
// worker context.
//
// # Error Handling
//
// Resolution errors (ErrPayloadNil, ErrPayloadMarshal, ErrInvalidWindow, ErrEmptyQueueName)
// fail fast before any network call. Transport failures are retried; once the budget is
// spent, or the context is done, Schedule returns a *SubmissionError, which matches
// ErrSubmissionFailed and the last transport error with errors.Is:
//
//	var subErr *queue.SubmissionError
//	if errors.As(err, &subErr) {
//	    log.Error("task lost", logger.Queue(subErr.Queue), logger.Attempt(subErr.Attempts))
//	}
//
// Handlers report ErrInvalidEnvelope and ErrInvalidPayload for bodies that can never
// succeed; the Worker fails such tasks without retrying them.
//
// # Examples
//
// Runnable examples live in example_test.go.
package queue
