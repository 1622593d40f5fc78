package gcp

import (
	"fmt"
	"os"
	"strings"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/provisioning"
)

// BillingLinkStep ensures the project is linked to the configured
// billing account.
func BillingLinkStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "billing link",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			result, err := run(ctx, "billing", "projects", "describe", ctx.Config.ProjectID,
				"--format=value(billingAccountName)")
			if err != nil {
				return false, err
			}
			return result.Success() && strings.Contains(result.Stdout, ctx.Config.Billing.AccountID), nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			return apply(ctx, execer.FamilyBilling,
				"billing", "projects", "link", ctx.Config.ProjectID,
				"--billing-account", ctx.Config.Billing.AccountID)
		},
	}
}

// BudgetStep creates a monthly budget on the billing account. Without a
// configured amount the step has nothing to do. A failure is advisory
// by default: budget creation needs billing permissions operators often
// lack, so the step degrades to printed follow-up instructions unless
// billing.severity is fatal for this environment.
func BudgetStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "budget",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			if ctx.Config.Billing.BudgetAmount == 0 {
				return false, nil
			}
			result, err := run(ctx, "billing", "budgets", "list",
				"--billing-account", ctx.Config.Billing.AccountID,
				"--filter", fmt.Sprintf("displayName=%s", budgetName(ctx)),
				"--format=value(name)")
			if err != nil {
				return false, err
			}
			return result.Success() && strings.TrimSpace(result.Stdout) != "", nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			if ctx.Config.Billing.BudgetAmount == 0 {
				return provisioning.ErrSkipped
			}

			err := apply(ctx, execer.FamilyBilling,
				"billing", "budgets", "create",
				"--billing-account", ctx.Config.Billing.AccountID,
				"--display-name", budgetName(ctx),
				"--budget-amount", fmt.Sprintf("%dUSD", ctx.Config.Billing.BudgetAmount),
				"--filter-projects", fmt.Sprintf("projects/%s", ctx.Config.ProjectID))
			if err == nil {
				return nil
			}

			if ctx.Config.Billing.Severity == config.SeverityFatal {
				return err
			}

			ctx.Observer.Event(provisioning.Event{
				Type: provisioning.EventWarning,
				Step: "budget",
				Message: fmt.Sprintf(
					"budget creation failed (%v); create it manually: console.cloud.google.com/billing/%s/budgets",
					err, ctx.Config.Billing.AccountID),
			})
			return provisioning.ErrSkipped
		},
	}
}

func budgetName(ctx *provisioning.Context) string {
	return fmt.Sprintf("skylift-%s", ctx.Config.Environment)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
