package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/skylift/skylift/internal/state"
)

// Status handles the status command. It prints the recorded
// infrastructure without contacting the cloud.
func Status(_ context.Context, configPath string, jsonOut bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	doc, err := newStore(cfg).Load()
	if err != nil {
		if errors.Is(err, state.ErrInfraNotProvisioned) {
			fmt.Printf("Environment %s: no infrastructure provisioned\n", cfg.Environment)
			return nil
		}
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	fmt.Printf("Environment %s (project %s)\n", cfg.Environment, cfg.ProjectID)

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := doc[name]
		fmt.Printf("  %s: %s", name, res.Name)
		if res.Zone != "" {
			fmt.Printf(" (%s)", res.Zone)
		}
		if res.ExternalIP != "" {
			fmt.Printf(" %s", res.ExternalIP)
		}
		fmt.Println()
	}
	return nil
}
