package commands

import (
	"github.com/spf13/cobra"

	"github.com/skylift/skylift/cmd/skylift/handlers"
)

// Deploy returns the command that pushes the application onto the
// provisioned instance.
func Deploy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the application to the provisioned instance",
		Long: `Deploy the application to the provisioned instance.

Artifacts are copied over SSH, the configured remote commands run in
order, and each service is then polled on its health endpoint. Requires
'skylift provision' to have completed; without recorded infrastructure
the command fails before touching anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: skylift.yaml)")

	return cmd
}
