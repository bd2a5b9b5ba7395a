package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/taskq/pkg/logger"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare backend storage (pg tables, mongo indexes, jetstream stream)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close(cmd.Context()) }()

			if err := b.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.log.InfoContext(cmd.Context(), "backend ready", logger.Backend(b.Name))
			return nil
		},
	}
}
