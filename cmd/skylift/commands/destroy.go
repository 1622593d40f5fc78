package commands

import (
	"github.com/spf13/cobra"

	"github.com/skylift/skylift/cmd/skylift/handlers"
)

// Destroy returns the command that tears down the environment.
func Destroy() *cobra.Command {
	var configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Tear down the environment",
		Long: `Tear down the environment.

Destroys the terraform-managed infrastructure, then schedules the
project itself for deletion. Project deletion asks for the project ID
to be typed back unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: skylift.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Approve all confirmations without prompting")

	return cmd
}
