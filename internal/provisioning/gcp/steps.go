// Package gcp builds the idempotent provisioning steps backed by the
// gcloud CLI: project, API enablement, billing, and the deployment
// service account. Step order in BuildPipeline encodes the dependency
// chain; the project must exist before APIs are enabled, APIs before
// the service account, billing before budgets.
package gcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/provisioning"
)

// BuildPipeline assembles the GCP provisioning pipeline for the
// configured environment.
func BuildPipeline(ctx *provisioning.Context, policy provisioning.Policy) provisioning.Pipeline {
	steps := []provisioning.Step{
		ProjectStep(),
	}
	for _, svc := range ctx.Config.Services {
		steps = append(steps, EnableServiceStep(svc))
	}
	if ctx.Config.Billing.AccountID != "" {
		steps = append(steps, BillingLinkStep(), BudgetStep())
	}
	steps = append(steps, ServiceAccountStep())
	for _, role := range ctx.Config.ServiceAccount.Roles {
		steps = append(steps, IAMBindingStep(role))
	}
	if ctx.Config.ServiceAccount.KeyFile != "" {
		steps = append(steps, ServiceAccountKeyStep())
	}

	return provisioning.Pipeline{Name: "gcp", Steps: steps, Policy: policy}
}

// run executes one gcloud invocation under the configured per-command
// timeout.
func run(ctx *provisioning.Context, args ...string) (execer.Result, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.GcloudCommand)
	defer cancel()
	return ctx.Runner.Run(cmdCtx, "gcloud", args...)
}

// apply interprets a mutating gcloud invocation: a clean exit or an
// already-exists marker is success, anything else surfaces the stderr.
func apply(ctx *provisioning.Context, family execer.Family, args ...string) error {
	result, err := run(ctx, args...)
	if err != nil {
		return err
	}
	switch execer.Classify(family, result) {
	case execer.ClassOK, execer.ClassAlreadyExists:
		return nil
	default:
		return &execer.CommandError{
			Command: "gcloud " + strings.Join(args, " "),
			Stderr:  result.Stderr,
			Code:    result.ExitCode,
		}
	}
}

// ProjectStep ensures the GCP project exists.
func ProjectStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "project",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			result, err := run(ctx, "projects", "describe", ctx.Config.ProjectID,
				"--format=value(projectId)")
			if err != nil {
				return false, err
			}
			return result.Success(), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			return apply(ctx, execer.FamilyProjects,
				"projects", "create", ctx.Config.ProjectID,
				"--name", fmt.Sprintf("skylift-%s", ctx.Config.Environment),
				"--set-as-default=false")
		},
	}
}

// EnableServiceStep ensures one GCP API is enabled on the project.
func EnableServiceStep(service string) provisioning.Step {
	return &provisioning.FuncStep{
		StepName: fmt.Sprintf("enable %s", service),
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			result, err := run(ctx, "services", "list", "--enabled",
				"--project", ctx.Config.ProjectID,
				"--filter", fmt.Sprintf("config.name=%s", service),
				"--format=value(config.name)")
			if err != nil {
				return false, err
			}
			return result.Success() && strings.Contains(result.Stdout, service), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			return apply(ctx, execer.FamilyServices,
				"services", "enable", service,
				"--project", ctx.Config.ProjectID)
		},
	}
}

// ServiceAccountStep ensures the deployment service account exists.
func ServiceAccountStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "service account",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			email := ctx.Config.ServiceAccount.Email(ctx.Config.ProjectID)
			result, err := run(ctx, "iam", "service-accounts", "describe", email,
				"--project", ctx.Config.ProjectID)
			if err != nil {
				return false, err
			}
			return result.Success(), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			return apply(ctx, execer.FamilyIAM,
				"iam", "service-accounts", "create", ctx.Config.ServiceAccount.Name,
				"--project", ctx.Config.ProjectID,
				"--display-name", "skylift deployment")
		},
	}
}

// IAMBindingStep grants one role to the deployment service account.
// There is no cheap side-effect-free existence probe for a single
// binding, so the step relies on add-iam-policy-binding being
// idempotent and on the already-exists classification.
func IAMBindingStep(role string) provisioning.Step {
	return &provisioning.FuncStep{
		StepName: fmt.Sprintf("bind %s", role),
		ApplyFn: func(ctx *provisioning.Context) error {
			email := ctx.Config.ServiceAccount.Email(ctx.Config.ProjectID)
			return apply(ctx, execer.FamilyIAM,
				"projects", "add-iam-policy-binding", ctx.Config.ProjectID,
				"--member", fmt.Sprintf("serviceAccount:%s", email),
				"--role", role,
				"--condition=None")
		},
	}
}

// ServiceAccountKeyStep materializes a key file for the deployment
// service account. The key file on disk is the existence marker.
func ServiceAccountKeyStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "service account key",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			return fileExists(ctx.Config.ServiceAccount.KeyFile), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			email := ctx.Config.ServiceAccount.Email(ctx.Config.ProjectID)
			return apply(ctx, execer.FamilyIAM,
				"iam", "service-accounts", "keys", "create", ctx.Config.ServiceAccount.KeyFile,
				"--iam-account", email,
				"--project", ctx.Config.ProjectID)
		},
	}
}
