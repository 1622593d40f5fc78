package provisioning

import (
	"context"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/confirm"
	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/state"
)

// Context wraps the dependencies every step needs. Steps read project,
// region and zone from Config here; they never consult ambient gcloud
// configuration.
type Context struct {
	context.Context
	Config   *config.Config
	Timeouts *config.Timeouts
	Runner   execer.Runner
	Gate     confirm.Source
	Observer Observer
	Store    *state.Store
}

// NewContext creates a provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	runner execer.Runner,
	gate confirm.Source,
	store *state.Store,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Timeouts: config.LoadTimeouts(),
		Runner:   runner,
		Gate:     gate,
		Observer: NewConsoleObserver(),
		Store:    store,
	}
}
