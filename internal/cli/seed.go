package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/supplydesk/internal/core/service"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load demo inventory and users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts.cfg, newLogger(rootOpts.cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := service.Seed(ctx, a.inventory, a.store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			items, err := a.inventory.List(ctx)
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintf(out, "item %-12s %4d  %s\n", item.Name, item.Quantity, item.Status)
			}
			for _, u := range users {
				fmt.Fprintf(out, "user %-20s id=%d  %s\n", u.Username, u.ID, u.Role)
			}
			return nil
		},
	}
}
