package commands

import (
	"github.com/spf13/cobra"

	"github.com/skylift/skylift/cmd/skylift/handlers"
)

// Provision returns the command that creates or updates an environment.
//
// Provisioning is idempotent: resources that already exist are left
// alone, so re-running after a partial failure picks up where the
// previous run stopped.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML (default: skylift.yaml)
//	--project: Override the configured project ID
//	--force, -f: Approve all confirmations, never prompt
//	--skip-infra: Skip the terraform infrastructure apply
//	--with-deploy: Deploy the application after provisioning
//	--on-failure: halt or continue past failed steps
func Provision() *cobra.Command {
	var opts handlers.ProvisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or update the environment",
		Long: `Create or update a Google Cloud environment.

This command ensures the project exists, enables the required APIs,
links billing, creates the deployment service account, and applies the
terraform infrastructure. Every step checks for existing state first,
so running it twice is safe.

Examples:
  # Provision using skylift.yaml in the current directory
  skylift provision

  # Provision and deploy the application in one go
  skylift provision --with-deploy

  # Non-interactive run that pushes past failed steps
  skylift provision --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: skylift.yaml)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Override the configured project ID")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Approve all confirmations without prompting")
	cmd.Flags().BoolVar(&opts.SkipInfra, "skip-infra", false, "Skip the terraform infrastructure apply")
	cmd.Flags().BoolVar(&opts.WithDeploy, "with-deploy", false, "Deploy the application after provisioning")
	cmd.Flags().StringVar(&opts.OnFailure, "on-failure", "", "Failure policy: halt or continue (default: ask)")

	return cmd
}
