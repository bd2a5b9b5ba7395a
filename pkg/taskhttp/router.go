package taskhttp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/taskq/pkg/logger"
	"github.com/dmitrymomot/taskq/pkg/queue"
)

// Router returns a chi router that executes pushed tasks with the given handlers.
// Each handler is served at POST /{queue}.
//
// Responses:
//   - 204 when the handler succeeds
//   - 404 when no handler serves the queue
//   - 413 when the body exceeds the size limit
//   - 422 when the body or payload is invalid
//   - 500 when the handler fails, so the push service retries
func Router(handlers []queue.Handler, opts ...Option) chi.Router {
	o := &options{
		logger:      logger.Discard(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(o)
	}

	byQueue := make(map[string]queue.Handler, len(handlers))
	for _, h := range handlers {
		if h != nil {
			byQueue[h.Queue()] = h
		}
	}

	d := &dispatcher{
		handlers:    byQueue,
		logger:      o.logger.With(logger.Component("taskhttp")),
		maxBodySize: o.maxBodySize,
	}

	r := chi.NewRouter()
	for _, mw := range o.middlewares {
		r.Use(mw)
	}
	r.Post("/{queue}", d.serveTask)

	return r
}

type dispatcher struct {
	handlers    map[string]queue.Handler
	logger      *slog.Logger
	maxBodySize int64
}

func (d *dispatcher) serveTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "queue")
	info := parseTaskInfo(r, name)
	log := d.logger.With(
		logger.Queue(name),
		logger.TaskName(info.Name),
		logger.RetryCount(info.RetryCount),
	)

	h, ok := d.handlers[name]
	if !ok {
		log.WarnContext(r.Context(), "no handler for pushed task")
		http.Error(w, queue.ErrHandlerNotFound.Error(), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			log.WarnContext(r.Context(), "task body too large", slog.Int64("limit", maxErr.Limit))
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		log.ErrorContext(r.Context(), "failed to read task body", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := withTaskInfo(r.Context(), info)
	start := time.Now()
	err = queue.HandleTask(ctx, h, body)
	log = log.With(logger.Duration(time.Since(start)))

	switch {
	case err == nil:
		log.DebugContext(ctx, "task processed")
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, queue.ErrInvalidEnvelope), errors.Is(err, queue.ErrInvalidPayload):
		log.WarnContext(ctx, "rejected invalid task", logger.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.ErrorContext(ctx, "task handler failed", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
