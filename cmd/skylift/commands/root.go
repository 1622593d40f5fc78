// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the skylift CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skylift",
		Short: "Provision and deploy application environments on Google Cloud",
	}

	cmd.AddCommand(Provision())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Status())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())

	return cmd
}
