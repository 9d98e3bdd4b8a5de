package cli

import (
	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/greet"
)

func newGreetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "greet [name]",
		Short: "Greet someone (if not specified, the current user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return greet.New(nil).Greet(cmd.OutOrStdout(), name)
		},
	}
}
