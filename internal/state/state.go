// Package state persists the infrastructure-apply output between phases.
//
// The terraform phase writes a Document of resource attributes; the
// deployment driver and status command read it back instead of
// re-invoking terraform. The document is owned by the provisioning
// pipeline: it is overwritten wholly on each successful apply and is
// never partially written.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// restoreTimeout bounds the backup fetch during Load.
const restoreTimeout = 30 * time.Second

// ErrInfraNotProvisioned indicates no infrastructure state exists yet.
// Downstream phases must fail fast on this instead of guessing defaults.
var ErrInfraNotProvisioned = errors.New("infrastructure not provisioned: no state found, run 'skylift provision' first")

const (
	// DefaultDir holds skylift's working files inside the environment
	// directory.
	DefaultDir = ".skylift"

	// DefaultFileName is the state file name inside DefaultDir.
	DefaultFileName = "state.json"
)

// DefaultPath returns the state file location inside the environment
// directory. Every command resolves state through this path, so runs
// from the same directory always agree on where state lives.
func DefaultPath() string {
	return filepath.Join(DefaultDir, DefaultFileName)
}

// Resource holds the attributes of one provisioned resource.
type Resource struct {
	Name       string            `json:"name"`
	Zone       string            `json:"zone,omitempty"`
	ExternalIP string            `json:"external_ip,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Document maps logical resource names (e.g. "compute_instance") to
// their attributes.
type Document map[string]Resource

// ComputeInstance returns the compute resource the application deploys
// to, or an error when it is absent or incomplete.
func (d Document) ComputeInstance() (Resource, error) {
	res, ok := d["compute_instance"]
	if !ok {
		return Resource{}, fmt.Errorf("state has no compute_instance resource")
	}
	if res.Name == "" || res.Zone == "" || res.ExternalIP == "" {
		return Resource{}, fmt.Errorf("compute_instance state is incomplete (name=%q zone=%q external_ip=%q)",
			res.Name, res.Zone, res.ExternalIP)
	}
	return res, nil
}

// Backup receives a copy of the document after each successful save.
// Backup failures are reported but never fail the save.
type Backup interface {
	Put(data []byte) error
}

// RestoringBackup can also serve the last snapshot back, letting a
// fresh checkout recover state the mirror still holds.
type RestoringBackup interface {
	Backup
	Fetch(ctx context.Context) ([]byte, error)
}

// ErrSnapshotMissing is returned by RestoringBackup.Fetch when the
// backend holds no snapshot for this environment.
var ErrSnapshotMissing = errors.New("backup holds no state snapshot")

// Store persists Documents at a fixed path.
type Store struct {
	path   string
	backup Backup
}

// NewStore creates a store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// WithBackup attaches a backup backend to the store.
func (s *Store) WithBackup(b Backup) *Store {
	s.backup = b
	return s
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Save atomically writes the document, replacing any previous state.
// The write goes to a temp file in the same directory followed by a
// rename, so readers never observe a torn document.
func (s *Store) Save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting state file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}

	if s.backup != nil {
		if err := s.backup.Put(data); err != nil {
			// Local state is authoritative. Losing the backup copy is
			// a warning, not a failure.
			fmt.Fprintf(os.Stderr, "warning: state backup failed: %v\n", err)
		}
	}

	return nil
}

// Load reads the persisted document. When the local file is absent it
// falls back to the backup snapshot, re-materializing it locally; with
// no backup (or an empty one) it yields ErrInfraNotProvisioned.
func (s *Store) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading state: %w", err)
		}
		data, err = s.restore()
		if err != nil {
			return nil, err
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding state %s: %w", s.path, err)
	}
	return doc, nil
}

// restore pulls the last snapshot from a restoring backup and writes
// it back locally so later loads skip the mirror.
func (s *Store) restore() ([]byte, error) {
	rb, ok := s.backup.(RestoringBackup)
	if !ok {
		return nil, ErrInfraNotProvisioned
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	data, err := rb.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotMissing) {
			return nil, ErrInfraNotProvisioned
		}
		return nil, fmt.Errorf("restoring state from backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err == nil {
		if err := os.WriteFile(s.path, data, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "warning: caching restored state failed: %v\n", err)
		}
	}
	return data, nil
}

// Remove deletes the persisted state, if any. Used after teardown.
func (s *Store) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state: %w", err)
	}
	return nil
}
