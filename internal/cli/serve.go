package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/taskq/internal/backend"
	"github.com/dmitrymomot/taskq/pkg/config"
	"github.com/dmitrymomot/taskq/pkg/httpserver"
	"github.com/dmitrymomot/taskq/pkg/queue"
	"github.com/dmitrymomot/taskq/pkg/taskhttp"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP endpoint push backends deliver tasks to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var hcfg httpserver.Config
			if err := config.Load(&hcfg); err != nil {
				return err
			}
			if addr != "" {
				hcfg.Addr = addr
			}

			b, err := a.openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close(context.WithoutCancel(cmd.Context())) }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := httpserver.NewFromConfig(hcfg, httpserver.WithLogger(a.log))
			return srv.Run(ctx, a.router(hcfg.TasksPath, b, a.taskHandlers()))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	return cmd
}

// router mounts health probes and, when tasksPath is set, the task routes.
func (a *app) router(tasksPath string, b *backend.Backend, handlers []queue.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(a.log))
	r.Get("/readyz", httpserver.HealthCheckHandler(a.log, b.Checks...))
	if tasksPath != "" {
		r.Mount(tasksPath, taskhttp.Router(handlers, taskhttp.WithLogger(a.log)))
		a.log.Debug("task routes mounted", slog.String("path", tasksPath), slog.Int("handlers", len(handlers)))
	}
	return r
}
