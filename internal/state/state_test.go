package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() Document {
	return Document{
		"compute_instance": {
			Name:       "skylift-app-prod",
			Zone:       "europe-west1-b",
			ExternalIP: "203.0.113.10",
			Attributes: map[string]string{"machine_type": "e2-small"},
		},
		"network": {
			Name:       "skylift-net",
			Attributes: map[string]string{"cidr": "10.0.0.0/24"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName))

	doc := testDoc()
	require.NoError(t, store.Save(doc))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestLoadEmptyStoreNotProvisioned(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName))

	_, err := store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfraNotProvisioned)
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName))

	require.NoError(t, store.Save(Document{"compute_instance": {Name: "old"}}))
	require.NoError(t, store.Save(testDoc()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "skylift-app-prod", loaded["compute_instance"].Name)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, DefaultFileName))

	require.NoError(t, store.Save(testDoc()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultFileName, entries[0].Name())
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "envs", "prod", DefaultFileName)
	store := NewStore(path)

	require.NoError(t, store.Save(testDoc()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoadCorruptState(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInfraNotProvisioned)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, store.Save(testDoc()))

	require.NoError(t, store.Remove())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrInfraNotProvisioned)

	// Removing again is fine.
	require.NoError(t, store.Remove())
}

type failingBackup struct{ calls int }

func (b *failingBackup) Put([]byte) error {
	b.calls++
	return errors.New("endpoint unreachable")
}

func TestBackupFailureDoesNotFailSave(t *testing.T) {
	t.Parallel()
	backup := &failingBackup{}
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName)).WithBackup(backup)

	require.NoError(t, store.Save(testDoc()))
	assert.Equal(t, 1, backup.calls)
}

type snapshotBackup struct {
	data    []byte
	err     error
	fetches int
}

func (b *snapshotBackup) Put([]byte) error { return nil }

func (b *snapshotBackup) Fetch(context.Context) ([]byte, error) {
	b.fetches++
	return b.data, b.err
}

func TestLoadRestoresFromBackup(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(testDoc())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DefaultFileName)
	backup := &snapshotBackup{data: data}
	store := NewStore(path).WithBackup(backup)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, testDoc(), loaded)

	// The restored snapshot is cached locally; a second load does not
	// touch the mirror.
	_, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, backup.fetches)
}

func TestLoadEmptyBackupNotProvisioned(t *testing.T) {
	t.Parallel()
	backup := &snapshotBackup{err: ErrSnapshotMissing}
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName)).WithBackup(backup)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrInfraNotProvisioned)
}

func TestLoadBackupFailureSurfaces(t *testing.T) {
	t.Parallel()
	backup := &snapshotBackup{err: errors.New("endpoint unreachable")}
	store := NewStore(filepath.Join(t.TempDir(), DefaultFileName)).WithBackup(backup)

	_, err := store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInfraNotProvisioned)
	assert.Contains(t, err.Error(), "restoring state from backup")
}

func TestComputeInstance(t *testing.T) {
	t.Parallel()
	res, err := testDoc().ComputeInstance()
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", res.ExternalIP)

	_, err = Document{}.ComputeInstance()
	require.Error(t, err)

	_, err = Document{"compute_instance": {Name: "x"}}.ComputeInstance()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}
