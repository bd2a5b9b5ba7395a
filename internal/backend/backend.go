// Package backend opens the transport selected by TASKQ_BACKEND together with its
// readiness checks, schema setup and cleanup.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	natsjs "github.com/nats-io/nats.go/jetstream"

	"github.com/dmitrymomot/taskq/pkg/cloudtasks"
	"github.com/dmitrymomot/taskq/pkg/config"
	"github.com/dmitrymomot/taskq/pkg/httpserver"
	"github.com/dmitrymomot/taskq/pkg/jetstream"
	"github.com/dmitrymomot/taskq/pkg/logger"
	"github.com/dmitrymomot/taskq/pkg/mongo"
	"github.com/dmitrymomot/taskq/pkg/pg"
	"github.com/dmitrymomot/taskq/pkg/queue"
	"github.com/dmitrymomot/taskq/pkg/redis"
)

// Backend names accepted by Open.
const (
	Memory     = "memory"
	Redis      = "redis"
	Postgres   = "pg"
	Mongo      = "mongo"
	CloudTasks = "cloudtasks"
	JetStream  = "jetstream"
)

// ErrUnknownBackend is returned by Open for an unsupported name.
var ErrUnknownBackend = errors.New("unknown backend")

// Names lists the supported backends.
func Names() []string {
	return []string{Memory, Redis, Postgres, Mongo, CloudTasks, JetStream}
}

// Backend is an opened transport.
type Backend struct {
	Name      string
	Transport queue.Transport
	// Source is nil for push-only backends (cloudtasks, jetstream).
	Source queue.WorkerSource
	Checks []httpserver.Check

	migrate func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

// Migrate prepares backend storage: tables, indexes or streams.
// Backends without schema return nil.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.migrate == nil {
		return nil
	}
	return b.migrate(ctx)
}

// Close releases connections in reverse order of acquisition.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for _, c := range slices.Backward(b.closers) {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Open connects the backend named by qcfg.Backend. Each backend reads its own env
// config. queues are the registered queue names, used for readiness probes.
func Open(ctx context.Context, qcfg queue.Config, queues []string, log *slog.Logger) (*Backend, error) {
	name := qcfg.Backend
	if name == "" {
		name = Memory
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Backend(name))

	var (
		b   *Backend
		err error
	)
	switch name {
	case Memory:
		b = openMemory()
	case Redis:
		b, err = openRedis(ctx)
	case Postgres:
		b, err = openPostgres(ctx, log)
	case Mongo:
		b, err = openMongo(ctx)
	case CloudTasks:
		b, err = openCloudTasks(ctx, qcfg, queues)
	case JetStream:
		b, err = openJetStream(log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", name, err)
	}

	log.DebugContext(ctx, "backend opened")
	return b, nil
}

func openMemory() *Backend {
	t := queue.NewMemoryTransport()
	return &Backend{Name: Memory, Transport: t, Source: t}
}

func openRedis(ctx context.Context) (*Backend, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	t, err := redis.NewTransport(client, redis.WithConfig(cfg))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Backend{
		Name:      Redis,
		Transport: t,
		Source:    t,
		Checks:    []httpserver.Check{{Name: Redis, Fn: redis.Healthcheck(client)}},
		closers:   []func(context.Context) error{func(context.Context) error { return client.Close() }},
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*Backend, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	t, err := pg.NewTransport(pool, cfg.Retention)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Backend{
		Name:      Postgres,
		Transport: t,
		Source:    t,
		Checks:    []httpserver.Check{{Name: Postgres, Fn: pg.Healthcheck(pool)}},
		migrate: func(ctx context.Context) error {
			return pg.Migrate(ctx, pool, cfg, log)
		},
		closers: []func(context.Context) error{func(context.Context) error {
			pool.Close()
			return nil
		}},
	}, nil
}

func openMongo(ctx context.Context) (*Backend, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	t, err := mongo.NewTransport(client.Database(cfg.Database).Collection(cfg.Collection), cfg.Retention)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Backend{
		Name:      Mongo,
		Transport: t,
		Source:    t,
		Checks:    []httpserver.Check{{Name: Mongo, Fn: mongo.Healthcheck(client)}},
		migrate:   t.EnsureIndexes,
		closers:   []func(context.Context) error{client.Disconnect},
	}, nil
}

func openCloudTasks(ctx context.Context, qcfg queue.Config, queues []string) (*Backend, error) {
	var cfg cloudtasks.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	t, err := cloudtasks.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b := &Backend{Name: CloudTasks, Transport: t}
	for _, q := range queues {
		b.Checks = append(b.Checks, httpserver.Check{
			Name: CloudTasks + ":" + q,
			Fn:   t.Healthcheck(queue.QueuePath(qcfg.Project, qcfg.Region, q)),
		})
	}
	return b, nil
}

func openJetStream(log *slog.Logger) (*Backend, error) {
	var cfg jetstream.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	conn, err := jetstream.Connect(cfg)
	if err != nil {
		return nil, err
	}
	js, err := natsjs.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Join(jetstream.ErrFailedToConnect, err)
	}
	t, err := jetstream.NewTransport(js, cfg.SubjectPrefix)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Backend{
		Name:      JetStream,
		Transport: t,
		Checks:    []httpserver.Check{{Name: JetStream, Fn: jetstream.Healthcheck(conn)}},
		migrate: func(ctx context.Context) error {
			stream, err := jetstream.EnsureStream(ctx, js, cfg)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "stream ready", slog.String("stream", stream.CachedInfo().Config.Name))
			return nil
		},
		closers: []func(context.Context) error{func(context.Context) error {
			return conn.Drain()
		}},
	}, nil
}
