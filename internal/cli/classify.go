package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/core/service"
)

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "classify <message...>",
		Short: "Print the suggested tag for a request message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := service.Classify(strings.Join(args, " "), domain.Role(role))
			fmt.Fprintln(cmd.OutOrStdout(), tag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", "", `submitter role, e.g. "Sales Executive"`)
	return cmd
}
