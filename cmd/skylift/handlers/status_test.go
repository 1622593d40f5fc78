package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/state"
)

func TestStatusWithoutInfrastructure(t *testing.T) {
	cfg := testConfig()
	stubFactories(t, cfg)

	require.NoError(t, Status(context.Background(), "", false))
}

func TestStatusPrintsRecordedState(t *testing.T) {
	cfg := testConfig()
	stubFactories(t, cfg)

	store := newStore(cfg)
	require.NoError(t, store.Save(state.Document{
		"compute_instance": {Name: "vm", Zone: "europe-west3-a", ExternalIP: "203.0.113.10"},
	}))
	// pin the factory so Status sees the same store
	newStore = func(*config.Config) *state.Store { return store }

	require.NoError(t, Status(context.Background(), "", false))
	require.NoError(t, Status(context.Background(), "", true))
}
