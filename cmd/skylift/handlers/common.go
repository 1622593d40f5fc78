// Package handlers implements the CLI command logic.
//
// Handlers wire configuration, the command runner, the confirmation
// gate and the state store together, then drive the provisioning
// pipelines or the deployment. Construction goes through package-level
// factory variables so tests can substitute fakes.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/confirm"
	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/platform/objstore"
	"github.com/skylift/skylift/internal/state"
)

// Factory function variables - can be replaced in tests.
var (
	loadConfigFile = config.LoadFile
	loadTimeouts   = config.LoadTimeouts
	newRunner      = func() execer.Runner { return execer.NewRunner() }
	newGate        = func(forced bool) confirm.Source { return confirm.NewSource(forced) }
	newStore       = buildStore
)

// loadConfig loads the configuration, falling back to the default file
// name next to the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultFileName
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// buildStore creates the state store, mirrored to object storage when
// configured.
func buildStore(cfg *config.Config) *state.Store {
	store := state.NewStore(state.DefaultPath())
	if cfg.StateBackup == nil {
		return store
	}

	b := cfg.StateBackup
	client, err := objstore.NewClient(b.Endpoint, b.Region, b.AccessKey, b.SecretKey, b.Bucket, backupKey(cfg))
	if err != nil {
		// A broken mirror never blocks provisioning.
		fmt.Fprintf(os.Stderr, "Warning: state backup disabled: %v\n", err)
		return store
	}

	ctx, cancel := context.WithTimeout(context.Background(), bucketSetupTimeout)
	defer cancel()
	if err := client.EnsureBucket(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: state backup disabled: %v\n", err)
		return store
	}
	return store.WithBackup(client)
}

// bucketSetupTimeout bounds the backup bucket check when a store is
// built with a mirror configured.
const bucketSetupTimeout = 30 * time.Second

func backupKey(cfg *config.Config) string {
	return cfg.Environment + "/" + state.DefaultFileName
}

// interactiveTerminal reports whether stdout is a TTY worth drawing a
// dashboard on.
func interactiveTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
