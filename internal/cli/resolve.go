package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

type scheduleFlags struct {
	name  string
	delay time.Duration
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Explicit task name")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "Delay before the task runs (ignored on windowed queues)")
}

func (f *scheduleFlags) options() []queue.ScheduleOption {
	var opts []queue.ScheduleOption
	if f.name != "" {
		opts = append(opts, queue.WithName(f.name))
	}
	if f.delay > 0 {
		opts = append(opts, queue.WithDelay(f.delay))
	}
	return opts
}

func newResolveCommand(a *app) *cobra.Command {
	var (
		flags scheduleFlags
		at    string
	)

	cmd := &cobra.Command{
		Use:   "resolve <queue> [payload]",
		Short: "Print the task name and delay a payload would get, without scheduling it",
		Long: `Resolve runs name and schedule-time resolution only. The payload is a JSON
value given as an argument, or read from stdin when omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				now = t
			}

			payload, err := readPayload(argAt(args, 1), cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, err := queue.NewClient(queue.NewMemoryTransport(), a.registry,
				queue.WithConfig(a.cfg),
				queue.WithLogger(a.log),
				queue.WithClock(func() time.Time { return now }),
			)
			if err != nil {
				return err
			}

			resolved, err := client.Resolve(args[0], payload, flags.options()...)
			if err != nil {
				return err
			}
			printResolved(cmd.OutOrStdout(), a.cfg, args[0], resolved, now)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "Resolve as of this RFC 3339 time instead of now")
	return cmd
}

func printResolved(w io.Writer, cfg queue.Config, queueName string, r queue.ResolvedSchedule, now time.Time) {
	fmt.Fprintf(w, "queue: %s\n", queueName)
	if r.HasName {
		fmt.Fprintf(w, "name: %s\n", r.Name)
		fmt.Fprintf(w, "path: %s\n", queue.TaskPath(cfg.Project, cfg.Region, queueName, r.Name))
	} else {
		fmt.Fprintln(w, "name: <assigned by backend>")
	}
	if st := r.ScheduleTime(now); st != nil {
		fmt.Fprintf(w, "delay: %ds\n", r.DelaySeconds)
		fmt.Fprintf(w, "schedule_time: %s\n", st.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "delay: none")
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
