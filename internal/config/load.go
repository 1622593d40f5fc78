package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no config
// path is given.
const DefaultFileName = "skylift.yaml"

// LoadFile reads and parses the configuration from a YAML file.
// An empty path falls back to DefaultFileName.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Billing.Severity == "" {
		// Budget setup degrades to printed follow-up instructions by
		// default; production environments set this to fatal.
		cfg.Billing.Severity = SeverityAdvisory
	}
	if cfg.Terraform.Dir == "" {
		cfg.Terraform.Dir = "infra"
	}
	if cfg.ServiceAccount.Name == "" {
		cfg.ServiceAccount.Name = "skylift-deploy"
	}
	if cfg.SSH.User == "" {
		cfg.SSH.User = "deploy"
	}
	if cfg.SSH.Port == 0 {
		cfg.SSH.Port = 22
	}
	for i := range cfg.App.Services {
		if cfg.App.Services[i].Path == "" {
			cfg.App.Services[i].Path = "/health"
		}
	}
}
