// Package jetstream is a queue.Transport that publishes tasks to a NATS JetStream
// stream.
//
// Each queue maps to the subject "{prefix}.{queue}". Named tasks are published with
// the task name as Nats-Msg-Id; the stream drops repeats inside its duplicate window
// and acknowledges them as duplicates, which the transport reports as
// queue.ErrTaskAlreadyExists. The schedule time travels in the Taskq-Schedule-Time
// header for consumers that defer execution.
//
//	conn, err := jetstream.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	js, err := natsjs.New(conn)
//	if err != nil {
//	    return err
//	}
//	if _, err := jetstream.EnsureStream(ctx, js, cfg); err != nil {
//	    return err
//	}
//	transport, err := jetstream.NewTransport(js, cfg.SubjectPrefix)
package jetstream
