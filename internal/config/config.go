// Package config loads and validates the skylift environment configuration.
package config

import "fmt"

// FailurePolicy decides what happens to the rest of a pipeline after a
// step fails.
type FailurePolicy string

const (
	// FailureHalt stops the pipeline at the first failed step.
	FailureHalt FailurePolicy = "halt"
	// FailureContinue attempts the remaining steps and degrades the
	// final report instead.
	FailureContinue FailurePolicy = "continue"
)

// Severity controls whether a failure of an advisory concern (budget
// configuration) aborts provisioning or only prints follow-up
// instructions.
type Severity string

const (
	SeverityAdvisory Severity = "advisory"
	SeverityFatal    Severity = "fatal"
)

// Config holds the environment configuration loaded from skylift.yaml.
type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	ProjectID   string `mapstructure:"project_id" yaml:"project_id"`
	Region      string `mapstructure:"region" yaml:"region"`
	Zone        string `mapstructure:"zone" yaml:"zone"`

	// Services are the GCP APIs enabled during provisioning.
	Services []string `mapstructure:"services" yaml:"services"`

	Billing        Billing        `mapstructure:"billing" yaml:"billing"`
	ServiceAccount ServiceAccount `mapstructure:"service_account" yaml:"service_account"`
	Terraform      Terraform      `mapstructure:"terraform" yaml:"terraform"`
	App            App            `mapstructure:"app" yaml:"app"`
	SSH            SSH            `mapstructure:"ssh" yaml:"ssh"`

	// OnFailure is the pipeline failure policy. When unset, interactive
	// runs are asked per failure and forced runs continue, degrading
	// the final report.
	OnFailure FailurePolicy `mapstructure:"on_failure" yaml:"on_failure,omitempty"`

	// StateBackup optionally mirrors the state document to an
	// S3-compatible bucket after each successful save.
	StateBackup *StateBackup `mapstructure:"state_backup" yaml:"state_backup,omitempty"`
}

// Billing configures the billing account link and budget.
type Billing struct {
	AccountID    string   `mapstructure:"account_id" yaml:"account_id"`
	BudgetAmount int      `mapstructure:"budget_amount" yaml:"budget_amount"`
	Severity     Severity `mapstructure:"severity" yaml:"severity"`
}

// ServiceAccount configures the deployment service account.
type ServiceAccount struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Roles   []string `mapstructure:"roles" yaml:"roles"`
	KeyFile string   `mapstructure:"key_file" yaml:"key_file"`
}

// Email returns the full service account email for the project.
func (sa ServiceAccount) Email(projectID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", sa.Name, projectID)
}

// Terraform configures the infrastructure-as-code phase.
type Terraform struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// App configures artifact deployment and health verification.
type App struct {
	// Artifacts are local paths copied to the instance home directory.
	Artifacts []string `mapstructure:"artifacts" yaml:"artifacts"`

	// RemoteCommands run on the instance, in order, after the copy.
	RemoteCommands []string `mapstructure:"remote_commands" yaml:"remote_commands"`

	// Services are health-checked after the remote commands complete.
	Services []Service `mapstructure:"services" yaml:"services"`
}

// Service is one health-checked endpoint of the deployed application.
type Service struct {
	Name string `mapstructure:"name" yaml:"name"`
	Port int    `mapstructure:"port" yaml:"port"`
	Path string `mapstructure:"path" yaml:"path"`
}

// SSH configures remote access to the compute instance.
type SSH struct {
	User    string `mapstructure:"user" yaml:"user"`
	KeyFile string `mapstructure:"key_file" yaml:"key_file"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// StateBackup configures the optional object storage mirror.
type StateBackup struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// Validate checks the configuration for required fields and consistent
// values.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Zone == "" {
		return fmt.Errorf("zone is required")
	}
	switch c.OnFailure {
	case "", FailureHalt, FailureContinue:
	default:
		return fmt.Errorf("on_failure must be %q or %q, got %q", FailureHalt, FailureContinue, c.OnFailure)
	}
	switch c.Billing.Severity {
	case SeverityAdvisory, SeverityFatal:
	default:
		return fmt.Errorf("billing.severity must be %q or %q, got %q", SeverityAdvisory, SeverityFatal, c.Billing.Severity)
	}
	for _, svc := range c.App.Services {
		if svc.Name == "" {
			return fmt.Errorf("app service name is required")
		}
		if svc.Port <= 0 || svc.Port > 65535 {
			return fmt.Errorf("app service %s: invalid port %d", svc.Name, svc.Port)
		}
	}
	if c.StateBackup != nil {
		if c.StateBackup.Endpoint == "" || c.StateBackup.Bucket == "" {
			return fmt.Errorf("state_backup requires endpoint and bucket")
		}
	}
	return nil
}
