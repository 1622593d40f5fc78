package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	root := Root()
	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"provision", "deploy", "destroy", "status", "doctor", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestProvisionFlags(t *testing.T) {
	t.Parallel()

	cmd := Provision()
	for _, flag := range []string{"config", "project", "force", "skip-infra", "with-deploy", "on-failure"} {
		require.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %q", flag)
	}

	// force is a shorthand too
	assert.Equal(t, "f", cmd.Flags().Lookup("force").Shorthand)
}

func TestDestroyFlags(t *testing.T) {
	t.Parallel()

	cmd := Destroy()
	require.NotNil(t, cmd.Flags().Lookup("config"))
	require.NotNil(t, cmd.Flags().Lookup("force"))
}

func TestStatusFlags(t *testing.T) {
	t.Parallel()

	cmd := Status()
	require.NotNil(t, cmd.Flags().Lookup("json"))
}
