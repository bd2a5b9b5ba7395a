package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newQueuesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List registered queues and their deduplication policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tDEDUPLICATION\tWINDOW")
			for _, name := range a.registry.Queues() {
				cfg, _ := a.registry.Lookup(name)
				window := "-"
				if cfg.DeduplicationWindowSeconds > 0 {
					window = cfg.Window().String()
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\n", name, cfg.Effective(), window)
			}
			return tw.Flush()
		},
	}
}
