package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/provisioning/destroy"
)

// Factory function variable for destroy - can be replaced in tests.
var buildDestroyPipeline = destroy.BuildPipeline

// Destroy handles the destroy command.
//
// It tears down the terraform-managed infrastructure, then schedules
// the project for deletion. Both steps go through the confirmation
// gate; project deletion requires the project ID typed back.
func Destroy(ctx context.Context, configPath string, force bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := checkPrerequisites().Error(); err != nil {
		return err
	}

	log.Printf("Destroying environment %s (project %s)", cfg.Environment, cfg.ProjectID)

	pCtx := provisioning.NewContext(ctx, cfg, newRunner(), newGate(force), newStore(cfg))
	report, err := runPipeline(pCtx, buildDestroyPipeline(pCtx))
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Environment %s destroyed (%d/%d steps)", cfg.Environment, report.Completed, report.Total)
	return nil
}
