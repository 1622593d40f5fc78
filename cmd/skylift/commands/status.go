package commands

import (
	"github.com/spf13/cobra"

	"github.com/skylift/skylift/cmd/skylift/handlers"
)

// Status returns the command that shows the recorded infrastructure.
func Status() *cobra.Command {
	var configPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the provisioned infrastructure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: skylift.yaml)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw state document as JSON")

	return cmd
}
