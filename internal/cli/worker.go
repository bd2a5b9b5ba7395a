package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskq/pkg/config"
	"github.com/dmitrymomot/taskq/pkg/httpserver"
	"github.com/dmitrymomot/taskq/pkg/queue"
)

func newWorkerCommand(a *app) *cobra.Command {
	var (
		healthAddr string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run due tasks from a pull backend (memory, redis, pg, mongo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close(context.WithoutCancel(cmd.Context())) }()

			if b.Source == nil {
				return fmt.Errorf("%s backend pushes tasks over HTTP; use the serve command", b.Name)
			}

			w, err := queue.NewWorker(b.Source,
				queue.WithPullInterval(a.cfg.WorkerPollInterval),
				queue.WithMaxConcurrentTasks(a.cfg.WorkerMaxConcurrentTasks),
				queue.WithTaskTimeout(a.cfg.WorkerTaskTimeout),
				queue.WithLockTimeout(a.cfg.WorkerLockTimeout),
				queue.WithMaxRetries(maxRetries),
				queue.WithWorkerLogger(a.log),
			)
			if err != nil {
				return err
			}
			w.RegisterHandlers(a.taskHandlers()...)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(w.Run(ctx))
			if healthAddr != "" {
				var hcfg httpserver.Config
				if err := config.Load(&hcfg); err != nil {
					return err
				}
				hcfg.Addr = healthAddr
				srv := httpserver.NewFromConfig(hcfg, httpserver.WithLogger(a.log))
				g.Go(func() error { return srv.Run(ctx, a.router("", b, nil)) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", "", "Serve /healthz and /readyz on this address")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Handler retries before a task is failed for good")
	return cmd
}
