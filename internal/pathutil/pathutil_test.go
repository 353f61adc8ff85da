package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandResolvesEnvReferences(t *testing.T) {
	t.Setenv("FSBACK_TEST_BASE", filepath.Join("opt", "data"))

	want := filepath.Clean(filepath.Join("opt", "data", "logs"))
	require.Equal(t, want, Expand("$FSBACK_TEST_BASE/logs"))
	require.Equal(t, want, Expand("${FSBACK_TEST_BASE}/logs"))
	require.Equal(t, want, Expand("%FSBACK_TEST_BASE%/logs"))
}

func TestExpandKeepsUnsetReferencesVerbatim(t *testing.T) {
	got := Expand("%FSBACK_NO_SUCH_VAR%/cache")
	require.True(t, strings.Contains(got, "%FSBACK_NO_SUCH_VAR%"))

	got = Expand("$FSBACK_NO_SUCH_VAR/cache")
	require.True(t, strings.Contains(got, "$FSBACK_NO_SUCH_VAR"))
}

func TestExpandResolvesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "notes"), Expand("~/notes"))
	require.Equal(t, filepath.Clean(home), Expand("~"))
}

func TestExpandCanonicalizesEquivalentSpellings(t *testing.T) {
	t.Setenv("FSBACK_TEST_BASE", filepath.Join("srv", "files"))

	// Different raw spellings of the same location must compare equal.
	a := Expand("$FSBACK_TEST_BASE/a/../a")
	b := Expand("%FSBACK_TEST_BASE%/a")
	require.Equal(t, b, a)
}

func TestExpandDoesNotRequireExistence(t *testing.T) {
	got := Expand(filepath.Join("definitely", "missing", "path"))
	require.Equal(t, filepath.Clean(filepath.Join("definitely", "missing", "path")), got)
}
