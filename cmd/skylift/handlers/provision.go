package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/provisioning/gcp"
	"github.com/skylift/skylift/internal/provisioning/sshkey"
	"github.com/skylift/skylift/internal/provisioning/terraform"
	"github.com/skylift/skylift/internal/ui/tui"
	"github.com/skylift/skylift/internal/util/prerequisites"
)

// ProvisionOptions carries the provision command flags.
type ProvisionOptions struct {
	ConfigPath string
	Project    string
	Force      bool
	SkipInfra  bool
	WithDeploy bool
	OnFailure  string
}

// Factory function variables for provision - can be replaced in tests.
var (
	checkPrerequisites = prerequisites.CheckDefault
	runPipeline        = provisioning.Run
	runPipelineTUI     = tui.RunPipeline
	useDashboard       = interactiveTerminal
)

// Provision handles the provision command.
//
// It ensures the project, APIs, billing, service account and terraform
// infrastructure exist, in that order. Already existing resources are
// reported and left alone.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Project != "" {
		cfg.ProjectID = opts.Project
	}
	if opts.OnFailure != "" {
		policy := config.FailurePolicy(opts.OnFailure)
		if policy != config.FailureHalt && policy != config.FailureContinue {
			return fmt.Errorf("invalid --on-failure value %q", opts.OnFailure)
		}
		cfg.OnFailure = policy
	}

	if err := checkPrerequisites().Error(); err != nil {
		return err
	}

	pCtx := provisioning.NewContext(ctx, cfg, newRunner(), newGate(opts.Force), newStore(cfg))
	policy := provisioning.PolicyFromConfig(cfg.OnFailure, opts.Force)

	pipeline := gcp.BuildPipeline(pCtx, policy)
	pipeline.Steps = append(pipeline.Steps, sshkey.Step())
	if !opts.SkipInfra {
		pipeline.Steps = append(pipeline.Steps, terraform.ApplyStep())
	}

	if err := runProvisionPipeline(pCtx, pipeline, cfg.Environment, opts.Force); err != nil {
		return err
	}

	if opts.WithDeploy {
		return Deploy(ctx, opts.ConfigPath)
	}
	return nil
}

// runProvisionPipeline executes the pipeline under the dashboard when
// running interactively, or with plain console output otherwise. The
// dashboard owns the terminal, so any run that may still prompt the
// operator stays on the console.
func runProvisionPipeline(pCtx *provisioning.Context, pipeline provisioning.Pipeline, environment string, forced bool) error {
	if useDashboard() && promptless(pipeline, forced) {
		return runPipelineTUI(pCtx.Context, pipeline.Name, environment, stepNames(pipeline), func(ctx context.Context, obs provisioning.Observer) error {
			pCtx.Context = ctx
			pCtx.Observer = obs
			return reportErr(runPipeline(pCtx, pipeline))
		})
	}

	if err := reportErr(runPipeline(pCtx, pipeline)); err != nil {
		return err
	}
	return nil
}

// reportErr reduces a pipeline run to its error, logging the summary.
func reportErr(report *provisioning.Report, err error) error {
	if report != nil {
		log.Printf("Pipeline finished: %d/%d steps completed", report.Completed, report.Total)
		for _, res := range report.Failed() {
			log.Printf("  failed: %s: %v", res.Step, res.Err)
		}
	}
	return err
}

// promptless reports whether the run can never need operator input.
func promptless(p provisioning.Pipeline, forced bool) bool {
	if forced {
		return true
	}
	if p.Policy == provisioning.PolicyAsk {
		return false
	}
	for _, s := range p.Steps {
		if s.Destructive() {
			return false
		}
	}
	return true
}

func stepNames(p provisioning.Pipeline) []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name()
	}
	return names
}
