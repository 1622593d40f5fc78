package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/state"
	"github.com/skylift/skylift/internal/util/prerequisites"
)

// Factory function variable for doctor - can be replaced in tests.
var checkAllTools = prerequisites.CheckAll

// Doctor handles the doctor command.
//
// It verifies the local environment: required client tools, the
// configuration file, and whether infrastructure state is present.
func Doctor(_ context.Context) error {
	results := checkAllTools()

	fmt.Println("Tools:")
	for _, res := range results.Results {
		switch {
		case res.Found && res.Version != "":
			fmt.Printf("  [OK] %s (%s)\n", res.Tool.Name, res.Version)
		case res.Found:
			fmt.Printf("  [OK] %s\n", res.Tool.Name)
		case res.Tool.Required:
			fmt.Printf("  [!!] %s missing - %s\n", res.Tool.Name, res.Tool.InstallURL)
		default:
			fmt.Printf("  [--] %s missing (optional)\n", res.Tool.Name)
		}
	}

	fmt.Println("Workspace:")
	if cfg, err := loadConfigFile(config.DefaultFileName); err != nil {
		fmt.Printf("  [!!] %s: %v\n", config.DefaultFileName, err)
	} else {
		fmt.Printf("  [OK] %s (environment %s, project %s)\n", config.DefaultFileName, cfg.Environment, cfg.ProjectID)

		store := newStore(cfg)
		statePath := store.Path()
		if _, err := store.Load(); err != nil {
			if errors.Is(err, state.ErrInfraNotProvisioned) {
				fmt.Printf("  [--] %s: no infrastructure provisioned\n", statePath)
			} else {
				fmt.Printf("  [!!] %s: %v\n", statePath, err)
			}
		} else {
			fmt.Printf("  [OK] %s\n", statePath)
		}
	}

	if err := results.Error(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
