// Package ssh provides the SSH client used to push application
// artifacts onto the provisioned instance and run the configured remote
// commands. Connections are dialed on demand with retry, since a
// freshly created instance may take a while to accept logins.
//
// Host key verification is disabled by default; the instances here are
// created and destroyed by this tool. Provide HostKeyCallback when
// targeting long-lived machines.
package ssh

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/skylift/skylift/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 12
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 15 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout bounds the TCP connection attempt. Zero means
	// defaultDialTimeout.
	DialTimeout time.Duration

	// MaxRetries caps connection attempts. Zero means
	// defaultMaxRetries.
	MaxRetries int

	// RetryDelay is the initial delay between attempts. Zero means
	// defaultRetryDelay.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification. Nil means
	// ssh.InsecureIgnoreHostKey().
	HostKeyCallback ssh.HostKeyCallback
}

// Client executes commands and uploads files on a remote host. The
// private key is parsed once during construction; connections are
// created per call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // instances are tool-managed and short-lived
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{config: &configCopy, signer: signer}, nil
}

// LoadKey reads a private key file for use in Config.PrivateKey.
func LoadKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SSH key %s: %w", path, err)
	}
	return data, nil
}

// Execute runs a command on the remote host, dialing with retry first.
// Returns the combined output and any execution error.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	return c.runCommand(client, command)
}

// Upload copies a local file into the remote user's home directory,
// keeping the base name. The transfer streams through a remote `cat`;
// no extra tooling is needed on the instance.
func (c *Client) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	session.Stdin = f
	remote := path.Base(localPath)
	if err := session.Run("cat > " + shellQuote(remote)); err != nil {
		return fmt.Errorf("uploading %s to %s: %w", localPath, c.config.Host, err)
	}
	return nil
}

// connect establishes the SSH connection with retry.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	var client *ssh.Client

	err := retry.WithBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		return dialErr
	},
		retry.WithMaxAttempts(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s after %d attempts: %w",
			addr, c.config.MaxRetries, err)
	}

	return client, nil
}

func (c *Client) runCommand(client *ssh.Client, command string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			c.config.Host, err, command, string(output))
	}
	return string(output), nil
}

// shellQuote single-quotes a string for the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
