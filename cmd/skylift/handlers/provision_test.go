package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/confirm"
	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/state"
	"github.com/skylift/skylift/internal/util/prerequisites"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "staging",
		ProjectID:   "skylift-staging",
		Region:      "europe-west3",
		Zone:        "europe-west3-a",
		Services:    []string{"compute.googleapis.com"},
		ServiceAccount: config.ServiceAccount{
			Name:  "skylift-deploy",
			Roles: []string{"roles/compute.admin"},
		},
		Terraform: config.Terraform{Dir: "infra"},
	}
}

// stubFactories replaces every provisioning factory with a fake and
// restores them on cleanup. The returned runner records all commands.
func stubFactories(t *testing.T, cfg *config.Config) *execer.FakeRunner {
	t.Helper()

	origLoad := loadConfigFile
	origPrereq := checkPrerequisites
	origRunner := newRunner
	origGate := newGate
	origStore := newStore
	origDash := useDashboard
	t.Cleanup(func() {
		loadConfigFile = origLoad
		checkPrerequisites = origPrereq
		newRunner = origRunner
		newGate = origGate
		newStore = origStore
		useDashboard = origDash
	})

	runner := &execer.FakeRunner{}
	runner.Stub("terraform -chdir=infra output -json", execer.Result{Stdout: "{}"}, nil)

	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	checkPrerequisites = func() *prerequisites.CheckResults { return &prerequisites.CheckResults{} }
	newRunner = func() execer.Runner { return runner }
	newGate = func(bool) confirm.Source { return confirm.Forced{} }
	newStore = func(*config.Config) *state.Store {
		return state.NewStore(filepath.Join(t.TempDir(), state.DefaultFileName))
	}
	useDashboard = func() bool { return false }

	return runner
}

func TestProvision(t *testing.T) {
	cfg := testConfig()
	runner := stubFactories(t, cfg)

	err := Provision(context.Background(), ProvisionOptions{Force: true})
	require.NoError(t, err)

	var sawGcloud, sawTerraform bool
	for _, line := range runner.CommandLines() {
		switch {
		case line == "gcloud projects describe skylift-staging --format=value(projectId)":
			sawGcloud = true
		case line == "terraform -chdir=infra output -json":
			sawTerraform = true
		}
	}
	assert.True(t, sawGcloud)
	assert.True(t, sawTerraform)
}

func TestProvisionSkipInfra(t *testing.T) {
	cfg := testConfig()
	runner := stubFactories(t, cfg)

	err := Provision(context.Background(), ProvisionOptions{Force: true, SkipInfra: true})
	require.NoError(t, err)

	for _, line := range runner.CommandLines() {
		assert.NotContains(t, line, "terraform")
	}
}

func TestProvisionProjectOverride(t *testing.T) {
	cfg := testConfig()
	runner := stubFactories(t, cfg)

	err := Provision(context.Background(), ProvisionOptions{Force: true, SkipInfra: true, Project: "other-project"})
	require.NoError(t, err)

	assert.Contains(t, runner.CommandLines(), "gcloud projects describe other-project --format=value(projectId)")
}

func TestProvisionInvalidOnFailure(t *testing.T) {
	cfg := testConfig()
	stubFactories(t, cfg)

	err := Provision(context.Background(), ProvisionOptions{OnFailure: "retry"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--on-failure")
}

func TestProvisionMissingTools(t *testing.T) {
	cfg := testConfig()
	stubFactories(t, cfg)
	checkPrerequisites = func() *prerequisites.CheckResults {
		return &prerequisites.CheckResults{Missing: []prerequisites.Tool{{
			Name: "terraform", Required: true, InstallURL: "https://example.com",
		}}}
	}

	err := Provision(context.Background(), ProvisionOptions{Force: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terraform")
}

func TestPromptless(t *testing.T) {
	t.Parallel()

	destructive := provisioning.Pipeline{
		Steps:  []provisioning.Step{&provisioning.FuncStep{StepName: "wipe", IsDestr: true}},
		Policy: provisioning.PolicyContinue,
	}
	benign := provisioning.Pipeline{
		Steps:  []provisioning.Step{&provisioning.FuncStep{StepName: "noop"}},
		Policy: provisioning.PolicyContinue,
	}
	asking := provisioning.Pipeline{Policy: provisioning.PolicyAsk}

	// forced runs never prompt regardless of content
	assert.True(t, promptless(destructive, true))
	assert.False(t, promptless(destructive, false))
	assert.True(t, promptless(benign, false))
	assert.False(t, promptless(asking, false))
}
