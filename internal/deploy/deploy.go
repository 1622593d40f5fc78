// Package deploy pushes the application onto the provisioned instance
// and verifies it came up. Deployment is strictly ordered: artifacts
// first, then the configured remote commands, then a health poll per
// service. A failed remote command stops the run and surfaces the
// offending command; nothing is rolled back.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/skylift/skylift/internal/config"
	"github.com/skylift/skylift/internal/platform/ssh"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/state"
	"github.com/skylift/skylift/internal/util/async"
	"github.com/skylift/skylift/internal/util/retry"
)

// Remote is the transport a deployment runs over.
type Remote interface {
	Execute(ctx context.Context, command string) (string, error)
	Upload(ctx context.Context, localPath string) error
}

// ServiceStatus is the per-service result of the post-deploy health
// poll.
type ServiceStatus struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Healthy  bool   `json:"healthy"`
	Attempts int    `json:"attempts"`
}

// Summary describes a completed deployment.
type Summary struct {
	Host     string          `json:"host"`
	Services []ServiceStatus `json:"services"`
}

// AllHealthy reports whether every polled service answered.
func (s *Summary) AllHealthy() bool {
	for _, svc := range s.Services {
		if !svc.Healthy {
			return false
		}
	}
	return true
}

// Driver runs deployments against the instance recorded in the state
// store.
type Driver struct {
	Config   *config.Config
	Timeouts *config.Timeouts
	Store    *state.Store
	Observer provisioning.Observer

	// Connect dials the deployment transport for a host. Defaults to
	// an SSH client built from the configured user and key file.
	Connect func(host string) (Remote, error)

	// HTTP performs the health probes. Defaults to a client with the
	// dial timeout of a single probe.
	HTTP *http.Client
}

// New creates a deployment driver with the default SSH transport.
func New(cfg *config.Config, timeouts *config.Timeouts, store *state.Store, obs provisioning.Observer) *Driver {
	d := &Driver{
		Config:   cfg,
		Timeouts: timeouts,
		Store:    store,
		Observer: obs,
		HTTP:     &http.Client{Timeout: timeouts.HealthInterval},
	}
	d.Connect = func(host string) (Remote, error) {
		key, err := ssh.LoadKey(cfg.SSH.KeyFile)
		if err != nil {
			return nil, err
		}
		return ssh.NewClient(&ssh.Config{
			Host:        host,
			Port:        cfg.SSH.Port,
			User:        cfg.SSH.User,
			PrivateKey:  key,
			DialTimeout: timeouts.SSHDial,
			MaxRetries:  timeouts.SSHMaxRetries,
		})
	}
	return d
}

// Run executes the deployment. With no provisioned infrastructure it
// fails before any remote contact.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	doc, err := d.Store.Load()
	if err != nil {
		if errors.Is(err, state.ErrInfraNotProvisioned) {
			return nil, fmt.Errorf("deploy requires provisioned infrastructure: %w", err)
		}
		return nil, err
	}
	inst, err := doc.ComputeInstance()
	if err != nil {
		return nil, err
	}

	remote, err := d.Connect(inst.ExternalIP)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", inst.ExternalIP, err)
	}

	for i, artifact := range d.Config.App.Artifacts {
		d.Observer.Progress("upload "+artifact, i+1, len(d.Config.App.Artifacts))
		if err := remote.Upload(ctx, artifact); err != nil {
			return nil, fmt.Errorf("uploading artifact %s: %w", artifact, err)
		}
	}

	for i, command := range d.Config.App.RemoteCommands {
		d.Observer.Progress(command, i+1, len(d.Config.App.RemoteCommands))
		cmdCtx, cancel := context.WithTimeout(ctx, d.Timeouts.RemoteCommand)
		output, err := remote.Execute(cmdCtx, command)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("remote command %q failed: %w", command, err)
		}
		if out := strings.TrimSpace(output); out != "" {
			d.Observer.Printf("%s", out)
		}
	}

	summary := &Summary{
		Host:     inst.ExternalIP,
		Services: make([]ServiceStatus, len(d.Config.App.Services)),
	}

	// independent endpoints, polled concurrently
	tasks := make([]async.Task, len(d.Config.App.Services))
	for i, svc := range d.Config.App.Services {
		tasks[i] = async.Task{Name: svc.Name, Func: func(ctx context.Context) error {
			summary.Services[i] = d.checkService(ctx, inst.ExternalIP, svc)
			return nil
		}}
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return nil, err
	}
	return summary, nil
}

// checkService polls one service endpoint until it answers 200 or the
// attempt budget runs out. An unhealthy service is reported as a
// warning, never as a deployment failure; slow starters are normal
// right after a deploy.
func (d *Driver) checkService(ctx context.Context, host string, svc config.Service) ServiceStatus {
	status := ServiceStatus{
		Name: svc.Name,
		URL:  fmt.Sprintf("http://%s:%d%s", host, svc.Port, svc.Path),
	}

	attempts := int(d.Timeouts.HealthTotal / d.Timeouts.HealthInterval)
	if attempts < 1 {
		attempts = 1
	}

	n, err := retry.Fixed(ctx, attempts, d.Timeouts.HealthInterval, func() error {
		return probe(ctx, d.HTTP, status.URL)
	})
	status.Attempts = n
	if err != nil {
		d.Observer.Event(provisioning.Event{
			Type:    provisioning.EventWarning,
			Message: fmt.Sprintf("service %s not healthy after %d attempts: %v", svc.Name, n, err),
		})
		return status
	}
	status.Healthy = true
	return status
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// AccessURLs lists the browsable endpoint per configured service, for
// the post-deploy summary.
func AccessURLs(host string, services []config.Service) []string {
	urls := make([]string, 0, len(services))
	for _, svc := range services {
		urls = append(urls, fmt.Sprintf("%s: http://%s:%d%s", svc.Name, host, svc.Port, svc.Path))
	}
	return urls
}
