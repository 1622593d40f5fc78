// Package destroy assembles the teardown pipeline: terraform-managed
// infrastructure first, then the project itself. Both steps are
// destructive; project deletion additionally demands the project ID
// typed back as confirmation.
package destroy

import (
	"context"

	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/provisioning/terraform"
)

// BuildPipeline assembles the teardown pipeline. Teardown always halts
// on the first failure; continuing past a failed destroy would delete
// the project out from under half-torn-down infrastructure.
func BuildPipeline(ctx *provisioning.Context) provisioning.Pipeline {
	return provisioning.Pipeline{
		Name: "destroy",
		Steps: []provisioning.Step{
			terraform.DestroyStep(),
			ProjectDeleteStep(ctx.Config.ProjectID),
		},
		Policy: provisioning.PolicyHalt,
	}
}

// ProjectDeleteStep schedules the GCP project for deletion. The
// confirmation gate requires the project ID to be typed back.
func ProjectDeleteStep(projectID string) provisioning.Step {
	return &provisioning.FuncStep{
		StepName:    "project delete",
		IsDestr:     true,
		ConfirmWith: projectID,
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			result, err := run(ctx, "projects", "describe", ctx.Config.ProjectID,
				"--format=value(projectId)")
			if err != nil {
				return false, err
			}
			// A project that cannot be described is already gone.
			return !result.Success(), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			result, err := run(ctx, "projects", "delete", ctx.Config.ProjectID, "--quiet")
			if err != nil {
				return err
			}
			if !result.Success() {
				return &execer.CommandError{
					Command: "gcloud projects delete " + ctx.Config.ProjectID,
					Stderr:  result.Stderr,
					Code:    result.ExitCode,
				}
			}
			return nil
		},
	}
}

func run(ctx *provisioning.Context, args ...string) (execer.Result, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.GcloudCommand)
	defer cancel()
	return ctx.Runner.Run(cmdCtx, "gcloud", args...)
}
