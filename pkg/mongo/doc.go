// Package mongo connects to MongoDB and provides a Mongo-backed task transport.
//
// New and NewWithDatabase connect with retries driven by Config, and Healthcheck
// returns a probe closure for readiness checks.
//
// # Transport
//
// Transport keys each document by "queue/name", so inserting a task whose name is
// already stored fails with a duplicate key error, reported as
// queue.ErrTaskAlreadyExists. Finished tasks get a purge_at timestamp one retention
// horizon after creation; the TTL index created by EnsureIndexes then frees the name.
//
// Transport also implements queue.WorkerSource. ClaimDue takes the earliest due
// pending document with FindOneAndUpdate and stamps locked_until; when nothing is
// pending it takes a processing document whose lease already expired.
//
// # Usage
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//	    return err
//	}
//	transport, err := mongo.NewTransport(db.Collection(cfg.Collection), cfg.Retention)
//	if err != nil {
//	    return err
//	}
//	if err := transport.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//
// # Configuration
//
//	MONGODB_URL                 mongodb://localhost:27017
//	MONGODB_DATABASE            database holding the collection, taskq
//	MONGODB_CONNECT_TIMEOUT     per attempt, 10s
//	MONGODB_RETRY_ATTEMPTS      connect attempts, 3
//	MONGODB_TASKQ_COLLECTION    task collection, taskq_tasks
//	MONGODB_TASKQ_RETENTION     how long a finished name blocks duplicates, 4h
//
// # Error Handling
//
// Connection failures are joined with ErrFailedToConnectToMongo and probe failures
// with ErrHealthcheckFailed. A nil collection yields ErrNilCollection.
package mongo
