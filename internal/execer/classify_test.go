package execer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySuccess(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ClassOK, Classify(FamilyProjects, Result{ExitCode: 0}))
}

func TestClassifyAlreadyExists(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		family Family
		stderr string
	}{
		{"project exists", FamilyProjects, "ERROR: (gcloud.projects.create) Project my-proj already exists."},
		{"entity exists", FamilyProjects, "ERROR: requested entity already exists"},
		{"service enabled", FamilyServices, "Service compute.googleapis.com is already enabled for project"},
		{"service account exists", FamilyIAM, "ERROR: Service account sa-deploy already exists within project"},
		{"iam alreadyExists code", FamilyIAM, `{"error": {"status": "alreadyExists"}}`},
		{"member bound", FamilyIAM, "Role roles/editor is already a member of the policy"},
		{"budget exists", FamilyBilling, "ERROR: budget monthly-cap already exists"},
		{"billing linked", FamilyBilling, "Billing account 0X0X0X is already linked to this project"},
		{"tf managed", FamilyTerraform, "Error: resource already managed by Terraform"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := Result{ExitCode: 1, Stderr: tc.stderr}
			assert.Equal(t, ClassAlreadyExists, Classify(tc.family, result))
		})
	}
}

func TestClassifyFailed(t *testing.T) {
	t.Parallel()
	result := Result{ExitCode: 1, Stderr: "ERROR: permission denied"}
	assert.Equal(t, ClassFailed, Classify(FamilyProjects, result))
}

func TestClassifyPatternsAreFamilyScoped(t *testing.T) {
	t.Parallel()
	// A projects marker must not make a billing failure look idempotent.
	result := Result{ExitCode: 1, Stderr: "Project my-proj already exists."}
	assert.Equal(t, ClassFailed, Classify(FamilyBilling, result))
}

func TestCommandError(t *testing.T) {
	t.Parallel()
	err := &CommandError{Command: "gcloud projects create", Stderr: " boom \n", Code: 1}
	assert.Equal(t, "gcloud projects create failed (exit 1): boom", err.Error())
	assert.True(t, IsCommandError(err))

	empty := &CommandError{Command: "terraform apply", Code: 2}
	assert.Contains(t, empty.Error(), "no output")
}
