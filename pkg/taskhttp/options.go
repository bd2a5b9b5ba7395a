package taskhttp

import (
	"log/slog"
	"net/http"
)

// DefaultMaxBodySize caps a task body. Cloud Tasks rejects HTTP tasks above 1MiB.
const DefaultMaxBodySize int64 = 1 << 20

// Option configures the task router.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	maxBodySize int64
	middlewares []func(http.Handler) http.Handler
}

// WithLogger sets the logger used for dispatch results.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxBodySize limits the accepted request body. Non-positive values are ignored.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithMiddleware adds chi-compatible middlewares in front of the task routes.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(o *options) {
		for _, m := range mw {
			if m != nil {
				o.middlewares = append(o.middlewares, m)
			}
		}
	}
}
