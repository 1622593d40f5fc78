package commands

import (
	"github.com/spf13/cobra"

	"github.com/skylift/skylift/cmd/skylift/handlers"
)

// Doctor returns the command that checks the local environment.
func Doctor() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that required client tools are installed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context())
		},
	}

	return cmd
}
