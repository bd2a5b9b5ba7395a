package jetstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"
)

// Connect opens a NATS connection described by cfg.
func Connect(cfg Config) (*nats.Conn, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, connectOptions(cfg)...)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnect, err)
	}
	return conn, nil
}

func connectOptions(cfg Config) []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectTimeout))
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	return opts
}

// EnsureStream creates or updates the task stream. Its duplicate window is the
// horizon within which a repeated task name is rejected.
func EnsureStream(ctx context.Context, js natsjs.JetStream, cfg Config) (natsjs.Stream, error) {
	stream, err := js.CreateOrUpdateStream(ctx, natsjs.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Storage:    natsjs.FileStorage,
		Duplicates: cfg.DuplicateWindow,
		Replicas:   max(cfg.Replicas, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", cfg.Stream, err)
	}
	return stream, nil
}

// Healthcheck returns a probe that fails while the connection is down.
func Healthcheck(conn *nats.Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if !conn.IsConnected() {
			return errors.Join(ErrHealthcheckFailed, nats.ErrConnectionClosed)
		}
		if err := conn.FlushWithContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
