package handlers

import (
	"context"
	"log"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/deploy"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/state"
)

// Factory function variable for deploy - can be replaced in tests.
var newDeployDriver = func(cfg *config.Config, timeouts *config.Timeouts, store *state.Store, obs provisioning.Observer) deployRunner {
	return deploy.New(cfg, timeouts, store, obs)
}

// deployRunner interface for testing - matches deploy.Driver.
type deployRunner interface {
	Run(ctx context.Context) (*deploy.Summary, error)
}

// Deploy handles the deploy command.
//
// It uploads the configured artifacts to the provisioned instance, runs
// the remote commands in order and polls every service's health
// endpoint. Unhealthy services are warnings; a failed remote command is
// an error.
func Deploy(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	driver := newDeployDriver(cfg, loadTimeouts(), newStore(cfg), provisioning.NewConsoleObserver())
	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Deployed to %s", summary.Host)
	for _, line := range deploy.AccessURLs(summary.Host, cfg.App.Services) {
		log.Printf("  %s", line)
	}
	for _, svc := range summary.Services {
		if !svc.Healthy {
			log.Printf("Warning: service %s did not answer on %s", svc.Name, svc.URL)
		}
	}
	return nil
}
