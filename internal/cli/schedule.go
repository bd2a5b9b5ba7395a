package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/taskq/pkg/logger"
	"github.com/dmitrymomot/taskq/pkg/queue"
)

func newScheduleCommand(a *app) *cobra.Command {
	var flags scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule <queue> [payload]",
		Short: "Schedule a task on the configured backend",
		Long: `Schedule submits a JSON payload to a queue. Submitting a payload whose task
already exists succeeds without creating a second task. The payload is read from
stdin when omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(argAt(args, 1), cmd.InOrStdin())
			if err != nil {
				return err
			}

			b, err := a.openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(cmd.Context()); err != nil {
					a.log.WarnContext(cmd.Context(), "failed to close backend", logger.Error(err))
				}
			}()

			// One clock reading so the printed name matches the submitted one.
			now := time.Now()
			client, err := queue.NewClient(b.Transport, a.registry,
				queue.WithConfig(a.cfg),
				queue.WithLogger(a.log),
				queue.WithClock(func() time.Time { return now }),
			)
			if err != nil {
				return err
			}

			opts := flags.options()
			resolved, err := client.Resolve(args[0], payload, opts...)
			if err != nil {
				return err
			}
			if err := client.Schedule(cmd.Context(), args[0], payload, opts...); err != nil {
				return err
			}

			printResolved(cmd.OutOrStdout(), a.cfg, args[0], resolved, now)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
