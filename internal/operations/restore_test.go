package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kebairia/fsback/internal/service"
)

// restoreFixture sets up two backed-up sources: a directory and a file.
type restoreFixture struct {
	dest    string
	dirSrc  string // parent_data
	fileSrc string // parent_app.conf
	fake    *fakeCommander
	op      *Operator
}

func newRestoreFixture(t *testing.T, storeYAML string) *restoreFixture {
	t.Helper()
	f := &restoreFixture{fake: &fakeCommander{state: service.StateStopped}}

	tmp := t.TempDir()
	f.dirSrc = filepath.Join(tmp, "parent", "data")
	f.fileSrc = filepath.Join(tmp, "parent", "app.conf")
	writeFile(t, filepath.Join(f.dirSrc, "a.txt"), "alpha")
	writeFile(t, filepath.Join(f.dirSrc, "sub", "b.txt"), "beta")
	writeFile(t, f.fileSrc, "conf")

	if storeYAML == "" {
		storeYAML = fmt.Sprintf("backup_paths:\n  - %q\n  - %q\n", f.dirSrc, f.fileSrc)
	}
	store := loadStore(t, storeYAML)
	f.op = testOperator(store, f.fake, true)

	f.dest = t.TempDir()
	summary, err := f.op.Backup(f.dest)
	require.NoError(t, err)
	require.Zero(t, summary.Failed)
	return f
}

func TestRestoreRoundTrip(t *testing.T) {
	f := newRestoreFixture(t, "")
	require.NoError(t, os.RemoveAll(f.dirSrc))
	require.NoError(t, os.Remove(f.fileSrc))

	summary, err := f.op.Restore(f.dest)
	require.NoError(t, err)
	require.Equal(t, Summary{Succeeded: 2, Failed: 0}, summary)

	require.Equal(t, "alpha", readFile(t, filepath.Join(f.dirSrc, "a.txt")))
	require.Equal(t, "beta", readFile(t, filepath.Join(f.dirSrc, "sub", "b.txt")))
	require.Equal(t, "conf", readFile(t, f.fileSrc))
}

func TestRestoreSelectiveByPointedPath(t *testing.T) {
	f := newRestoreFixture(t, "")
	require.NoError(t, os.RemoveAll(f.dirSrc))
	require.NoError(t, os.Remove(f.fileSrc))

	// Pointing at one backed-up folder restores only that record.
	summary, err := f.op.Restore(filepath.Join(f.dest, "parent_app.conf"))
	require.NoError(t, err)
	require.Equal(t, Summary{Succeeded: 1, Failed: 0}, summary)

	require.Equal(t, "conf", readFile(t, f.fileSrc))
	require.NoDirExists(t, f.dirSrc)
}

func TestRestoreTargetNotFoundListsAvailable(t *testing.T) {
	f := newRestoreFixture(t, "")

	_, err := f.op.Restore(filepath.Join(f.dest, "no_such_item"))
	require.ErrorIs(t, err, ErrTargetNotFound)
	require.Contains(t, err.Error(), "parent_data")
	require.Contains(t, err.Error(), "parent_app.conf")
}

func TestRestoreWithoutLedgerFails(t *testing.T) {
	op := testOperator(loadStore(t, "backup_paths: []\n"),
		&fakeCommander{state: service.StateStopped}, true)

	_, err := op.Restore(t.TempDir())
	require.ErrorIs(t, err, ErrNoLedger)
}

func TestRestoreDeclinedTouchesNothing(t *testing.T) {
	f := newRestoreFixture(t, "")
	require.NoError(t, os.RemoveAll(f.dirSrc))

	decline := testOperator(loadStore(t, "backup_paths: []\n"), f.fake, false)
	_, err := decline.Restore(f.dest)
	require.ErrorIs(t, err, ErrRestoreCancelled)

	// Nothing was restored.
	require.NoDirExists(t, f.dirSrc)
}

func TestRestoreReplacesExistingTree(t *testing.T) {
	f := newRestoreFixture(t, "")

	// Files added after the backup must not survive a restore: the
	// destination is removed first, then copied fresh.
	writeFile(t, filepath.Join(f.dirSrc, "added-later.txt"), "extra")

	summary, err := f.op.Restore(filepath.Join(f.dest, "parent_data"))
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	require.NoFileExists(t, filepath.Join(f.dirSrc, "added-later.txt"))
	require.Equal(t, "alpha", readFile(t, filepath.Join(f.dirSrc, "a.txt")))
}

func TestRestoreRecreatesFileParents(t *testing.T) {
	f := newRestoreFixture(t, "")

	// The whole parent directory is gone; a file restore recreates it.
	require.NoError(t, os.RemoveAll(filepath.Dir(f.fileSrc)))

	summary, err := f.op.Restore(filepath.Join(f.dest, "parent_app.conf"))
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, "conf", readFile(t, f.fileSrc))
}

func TestRestoreMissingBackupItemCountsAsFailure(t *testing.T) {
	f := newRestoreFixture(t, "")

	require.NoError(t, os.RemoveAll(filepath.Join(f.dest, "parent_data")))

	summary, err := f.op.Restore(f.dest)
	require.NoError(t, err)
	require.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)
}

func TestRestoreStopsSharedServiceOnce(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "parent", "a")
	b := filepath.Join(tmp, "parent", "b")
	writeFile(t, filepath.Join(a, "f.txt"), "a")
	writeFile(t, filepath.Join(b, "f.txt"), "b")

	fake := &fakeCommander{state: service.StateStopped}
	store := loadStore(t, fmt.Sprintf(
		"backup_paths:\n  - path: %q\n    service: Shared\n  - path: %q\n    service: Shared\n", a, b))
	op := testOperator(store, fake, true)
	dest := t.TempDir()

	_, err := op.Backup(dest)
	require.NoError(t, err)

	// Now the service is running and must be paused exactly once for the
	// whole group, then restarted because this run paused it.
	fake.state = service.StateRunning
	fake.stopCalls, fake.startCalls = 0, 0

	summary, err := op.Restore(dest)
	require.NoError(t, err)
	require.Equal(t, Summary{Succeeded: 2, Failed: 0}, summary)
	require.Equal(t, 1, fake.stopCalls)
	require.Equal(t, 1, fake.startCalls)
}

func TestRestoreServiceStopFailureFailsGroupOnly(t *testing.T) {
	tmp := t.TempDir()
	gated := filepath.Join(tmp, "parent", "gated")
	free := filepath.Join(tmp, "parent", "free")
	writeFile(t, filepath.Join(gated, "f.txt"), "held")
	writeFile(t, filepath.Join(free, "f.txt"), "ok")

	fake := &fakeCommander{state: service.StateStopped}
	store := loadStore(t, fmt.Sprintf(
		"backup_paths:\n  - path: %q\n    service: HoldsFiles\n  - %q\n", gated, free))
	op := testOperator(store, fake, true)
	dest := t.TempDir()

	_, err := op.Backup(dest)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(gated))
	require.NoError(t, os.RemoveAll(free))

	fake.state = service.StateRunning
	fake.refuse = true

	summary, err := op.Restore(dest)
	require.NoError(t, err)
	require.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)

	// The serviced group was skipped wholesale, the free group restored.
	require.NoDirExists(t, gated)
	require.Equal(t, "ok", readFile(t, filepath.Join(free, "f.txt")))
}

func TestRestoreNotRunningServiceIsNotRestarted(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "parent", "a")
	writeFile(t, filepath.Join(src, "f.txt"), "a")

	fake := &fakeCommander{state: service.StateStopped}
	store := loadStore(t, fmt.Sprintf("backup_paths:\n  - path: %q\n    service: Idle\n", src))
	op := testOperator(store, fake, true)
	dest := t.TempDir()

	_, err := op.Backup(dest)
	require.NoError(t, err)

	fake.stopCalls, fake.startCalls = 0, 0
	summary, err := op.Restore(dest)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	// Already stopped: not paused by this run, so not restarted either.
	require.Zero(t, fake.stopCalls)
	require.Zero(t, fake.startCalls)
}
