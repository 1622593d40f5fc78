package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds configurable timeout values. Each can be overridden
// via an environment variable.
type Timeouts struct {
	TerraformApply time.Duration // terraform plan/apply invocations
	GcloudCommand  time.Duration // individual gcloud invocations
	RemoteCommand  time.Duration // each remote command during deploy
	HealthTotal    time.Duration // total budget for a health check
	HealthInterval time.Duration // sleep between health probes
	SSHDial        time.Duration // establishing the SSH connection
	SSHMaxRetries  int           // SSH connection attempts
}

// LoadTimeouts loads timeout configuration from environment variables,
// falling back to defaults when unset or invalid.
//
// Environment Variables:
//   - SKYLIFT_TIMEOUT_TERRAFORM (default: 20m)
//   - SKYLIFT_TIMEOUT_GCLOUD (default: 2m)
//   - SKYLIFT_TIMEOUT_REMOTE_COMMAND (default: 5m)
//   - SKYLIFT_TIMEOUT_HEALTH (default: 10s)
//   - SKYLIFT_HEALTH_INTERVAL (default: 2s)
//   - SKYLIFT_TIMEOUT_SSH_DIAL (default: 10s)
//   - SKYLIFT_SSH_MAX_RETRIES (default: 12)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		TerraformApply: parseDuration("SKYLIFT_TIMEOUT_TERRAFORM", 20*time.Minute),
		GcloudCommand:  parseDuration("SKYLIFT_TIMEOUT_GCLOUD", 2*time.Minute),
		RemoteCommand:  parseDuration("SKYLIFT_TIMEOUT_REMOTE_COMMAND", 5*time.Minute),
		HealthTotal:    parseDuration("SKYLIFT_TIMEOUT_HEALTH", 10*time.Second),
		HealthInterval: parseDuration("SKYLIFT_HEALTH_INTERVAL", 2*time.Second),
		SSHDial:        parseDuration("SKYLIFT_TIMEOUT_SSH_DIAL", 10*time.Second),
		SSHMaxRetries:  parseInt("SKYLIFT_SSH_MAX_RETRIES", 12),
	}
}

func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
