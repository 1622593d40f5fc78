package destroy

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
)

func testContext(t *testing.T, runner execer.Runner, gate confirm.Source) *provisioning.Context {
	t.Helper()

	cfg := &config.Config{
		Environment: "staging",
		ProjectID:   "skylift-staging",
		Region:      "europe-west3",
		Zone:        "europe-west3-a",
		Terraform:   config.Terraform{Dir: "infra"},
	}
	store := state.NewStore(filepath.Join(t.TempDir(), state.DefaultFileName))
	return provisioning.NewContext(context.Background(), cfg, runner, gate, store)
}

func seedState(t *testing.T, ctx *provisioning.Context) {
	t.Helper()
	doc := state.Document{"compute_instance": {Name: "vm", Zone: "europe-west3-a", ExternalIP: "203.0.113.10"}}
	require.NoError(t, ctx.Store.Save(doc))
}

func TestDestroyPipelineTearsDownInfraThenProject(t *testing.T) {
	t.Parallel()

	runner := &execer.FakeRunner{}
	gate := &confirm.Scripted{Answers: []bool{true, true}, Literals: []string{"skylift-staging"}}
	ctx := testContext(t, runner, gate)
	seedState(t, ctx)

	report, err := provisioning.Run(ctx, BuildPipeline(ctx))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Completed)

	lines := runner.CommandLines()
	var destroyed, deleted bool
	for _, line := range lines {
		if line == "gcloud projects delete skylift-staging --quiet" {
			deleted = true
			assert.True(t, destroyed, "infrastructure must be destroyed before the project")
		}
		if line == "terraform -chdir=infra destroy -auto-approve -input=false -var project_id=skylift-staging -var region=europe-west3 -var zone=europe-west3-a" {
			destroyed = true
		}
	}
	assert.True(t, destroyed)
	assert.True(t, deleted)

	// both destructive steps went through the gate, with the literal
	// project ID demanded for deletion
	require.Len(t, gate.Requests, 2)
	assert.Equal(t, "skylift-staging", gate.Requests[1].RequireLiteral)

	_, err = ctx.Store.Load()
	assert.ErrorIs(t, err, state.ErrInfraNotProvisioned)
}

func TestDestroyPipelineRejectedConfirmationAborts(t *testing.T) {
	t.Parallel()

	runner := &execer.FakeRunner{}
	gate := &confirm.Scripted{Answers: []bool{false}}
	ctx := testContext(t, runner, gate)
	seedState(t, ctx)

	report, err := provisioning.Run(ctx, BuildPipeline(ctx))
	require.Error(t, err)
	assert.ErrorIs(t, err, confirm.ErrUserCancelled)
	assert.True(t, report.Aborted)
	assert.Empty(t, runner.CommandLines())

	// rejected teardown leaves the state untouched
	_, loadErr := ctx.Store.Load()
	assert.NoError(t, loadErr)
}

func TestDestroyPipelineSkipsInfraWithoutState(t *testing.T) {
	t.Parallel()

	runner := &execer.FakeRunner{}
	// project already gone too
	runner.Stub("gcloud projects describe", execer.Result{Stderr: "ERROR: (gcloud.projects.describe) Project not found", ExitCode: 1}, nil)
	ctx := testContext(t, runner, confirm.Forced{})

	report, err := provisioning.Run(ctx, BuildPipeline(ctx))
	require.NoError(t, err)

	for _, res := range report.Results {
		assert.Equal(t, provisioning.OutcomeAlreadyExisted, res.Outcome)
	}
	for _, line := range runner.CommandLines() {
		assert.NotContains(t, line, "destroy")
		assert.NotContains(t, line, "delete")
	}
}

func TestProjectDeleteStepFailureSurfacesStderr(t *testing.T) {
	t.Parallel()

	runner := &execer.FakeRunner{}
	runner.Stub("gcloud projects delete", execer.Result{Stderr: "ERROR: permission denied", ExitCode: 1}, nil)
	ctx := testContext(t, runner, confirm.Forced{})

	err := ProjectDeleteStep("skylift-staging").Apply(ctx)
	require.Error(t, err)
	require.True(t, execer.IsCommandError(err))
	assert.Contains(t, err.Error(), "permission denied")
}
