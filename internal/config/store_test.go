package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStore(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadNormalizesDuckTypedEntries(t *testing.T) {
	path := writeStore(t, `
backup_paths:
  - /plain/path
  - path: /srv/certs
    service: CertAgent
    exclude: [cache, tmp]
    destination: certs
`)

	store, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	entries := store.Entries()
	require.Equal(t, Entry{Path: "/plain/path"}, entries[0])
	require.Equal(t, Entry{
		Path:        "/srv/certs",
		Service:     "CertAgent",
		Exclude:     []string{"cache", "tmp"},
		Destination: "certs",
	}, entries[1])
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Zero(t, store.Len())
}

func TestLoadRejectsEntryWithoutPath(t *testing.T) {
	path := writeStore(t, `
backup_paths:
  - service: Orphan
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrLoadConfig)
}

func TestAddRejectsDuplicateOnExpandedForm(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FSBACK_CFG_DIR", dir)

	store, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.NoError(t, store.Add(dir, nil))

	// A different spelling resolving to the same location is a duplicate.
	err = store.Add("$FSBACK_CFG_DIR", nil)
	require.ErrorIs(t, err, ErrDuplicatePath)
	require.Equal(t, 1, store.Len())
}

func TestAddMissingPathAsksForConfirmation(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	missing := filepath.Join(t.TempDir(), "not-there")

	err = store.Add(missing, func(string) bool { return false })
	require.ErrorIs(t, err, ErrCancelled)
	require.Zero(t, store.Len())

	require.NoError(t, store.Add(missing, func(string) bool { return true }))
	require.Equal(t, 1, store.Len())
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, store.Add(dir, nil))

	err = store.Remove(filepath.Join(dir, "never-added"))
	require.ErrorIs(t, err, ErrPathNotRegistered)

	require.NoError(t, store.Remove(dir))
	require.Zero(t, store.Len())
}

func TestSaveRoundTripsEntryShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	original := writeStore(t, `
backup_paths:
  - /plain/path
  - path: /srv/certs
    service: CertAgent
`)

	store, err := Load(original)
	require.NoError(t, err)
	store.path = path
	require.NoError(t, store.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, store.Entries(), reloaded.Entries())

	// Bare entries stay bare strings on disk.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "- /plain/path")
}
