// Package cli contains the Cobra commands of the taskq binary.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/taskq/internal/backend"
	"github.com/dmitrymomot/taskq/pkg/config"
	"github.com/dmitrymomot/taskq/pkg/logger"
	"github.com/dmitrymomot/taskq/pkg/queue"
	"github.com/dmitrymomot/taskq/pkg/taskhttp"
)

// Option customises the command tree, mostly for programs embedding it.
type Option func(*app)

// WithHandlers sets the handlers run by serve and worker. Without handlers every
// registered queue gets a handler that logs the payload.
func WithHandlers(handlers ...queue.Handler) Option {
	return func(a *app) {
		a.handlers = append(a.handlers, handlers...)
	}
}

// WithLogOutput redirects logs, which go to stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(a *app) {
		if w != nil {
			a.logOutput = w
		}
	}
}

// app is the state shared by all commands, populated before any of them runs.
type app struct {
	handlers  []queue.Handler
	logOutput io.Writer

	envFiles    []string
	definitions string
	backendName string

	log      *slog.Logger
	cfg      queue.Config
	registry *queue.Registry
}

// NewRoot constructs the root command with every subcommand registered.
func NewRoot(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "taskq",
		Short: "Deduplicating task scheduler",
		Long: `taskq schedules deferred tasks on remote queues and collapses identical
submissions into one task.

Queues are declared in a definitions file (YAML, TOML or JSON):

  queues:
    send_email:
      deduplication_window_seconds: 60
    rebuild_index:
      use_deduplication: true

Backends: memory, redis, pg, mongo, cloudtasks, jetstream.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.init(cmd) },
	}

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Load variables from .env files before reading config")
	root.PersistentFlags().StringVarP(&a.definitions, "definitions", "d", "", "Queue definitions file (overrides TASKQ_DEFINITIONS_FILE)")
	root.PersistentFlags().StringVarP(&a.backendName, "backend", "b", "", "Transport backend (overrides TASKQ_BACKEND)")

	root.AddCommand(
		newQueuesCommand(a),
		newResolveCommand(a),
		newScheduleCommand(a),
		newMigrateCommand(a),
		newServeCommand(a),
		newWorkerCommand(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if len(a.envFiles) > 0 {
		if err := config.LoadEnv(a.envFiles...); err != nil {
			return err
		}
	}

	var lcfg logger.Config
	if err := config.Load(&lcfg); err != nil {
		return err
	}
	out := a.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	a.log = logger.New(append(logger.FromConfig(lcfg),
		logger.WithOutput(out),
		logger.WithContextExtractors(taskhttp.LoggerExtractor()),
	)...)

	if err := config.Load(&a.cfg); err != nil {
		return err
	}
	if a.definitions != "" {
		a.cfg.DefinitionsFile = a.definitions
	}
	if a.backendName != "" {
		a.cfg.Backend = a.backendName
	}

	var defs queue.Definitions
	if a.cfg.DefinitionsFile != "" {
		if err := config.LoadFile(a.cfg.DefinitionsFile, &defs); err != nil {
			return err
		}
	}
	registry, err := queue.NewRegistryFromDefinitions(defs)
	if err != nil {
		return err
	}
	a.registry = registry
	return nil
}

func (a *app) openBackend(cmd *cobra.Command) (*backend.Backend, error) {
	return backend.Open(cmd.Context(), a.cfg, a.registry.Queues(), a.log)
}

// taskHandlers returns the configured handlers or logging handlers for every queue.
func (a *app) taskHandlers() []queue.Handler {
	if len(a.handlers) > 0 {
		return a.handlers
	}
	queues := a.registry.Queues()
	handlers := make([]queue.Handler, 0, len(queues))
	for _, q := range queues {
		handlers = append(handlers, logHandler{queue: q, log: a.log})
	}
	return handlers
}
