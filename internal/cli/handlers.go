package cli

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dmitrymomot/taskq/pkg/logger"
)

// logHandler acknowledges every task after logging it.
type logHandler struct {
	queue string
	log   *slog.Logger
}

func (h logHandler) Queue() string { return h.queue }

func (h logHandler) Handle(ctx context.Context, payload json.RawMessage) error {
	h.log.InfoContext(ctx, "task received",
		logger.Queue(h.queue),
		slog.String("payload", string(payload)),
	)
	return nil
}
