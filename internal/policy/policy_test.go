package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/apperr"
)

func TestEnsureFileReadScopeBlocksSystemPaths(t *testing.T) {
	_, err := EnsureFileReadScope("/etc/passwd", []string{"/etc"}, []string{"/etc"})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, 403, ae.Status)
}

func TestEnsureFileReadScopeRequiresConfiguredFolders(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureFileReadScope(dir, nil, []string{dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "No folders are allowed yet")
}

func TestEnsureFileReadScopeRequiresPlanRoot(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureFileReadScope(dir, []string{dir}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "No allowed file read roots")
}

func TestEnsureFileReadScopeOutsideConfiguredFolders(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	_, err := EnsureFileReadScope(other, []string{dir}, []string{other})
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside configured allowed folders")
}

func TestEnsureFileReadScopeOutsidePlanScope(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a")
	other := filepath.Join(dir, "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.MkdirAll(other, 0o755))

	_, err := EnsureFileReadScope(other, []string{dir}, []string{sub})
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside allowed read scope")
}

func TestEnsureFileReadScopeAccepts(t *testing.T) {
	dir := t.TempDir()
	resolved, err := EnsureFileReadScope(dir, []string{dir}, []string{dir})
	require.NoError(t, err)
	require.NotEmpty(t, resolved)
}

func TestEnforceShellOperatorsRejectsChaining(t *testing.T) {
	require.Error(t, EnforceShellOperators([]string{"ls", ";", "rm"}))
	require.Error(t, EnforceShellOperators([]string{"cat", "a", ">", "b"}))
	require.NoError(t, EnforceShellOperators([]string{"git", "status"}))
}

func TestEnforceShellDenyKeywords(t *testing.T) {
	require.Error(t, EnforceShellDenyKeywords([]string{"rm", "-rf", "/"}))
	require.Error(t, EnforceShellDenyKeywords([]string{"curl", "http://x"}))
	require.NoError(t, EnforceShellDenyKeywords([]string{"git", "status"}))
}

func TestEnforceShellAllowlistInternal(t *testing.T) {
	cases := [][]string{
		{"pwd"},
		{"ls"},
		{"ls", "/tmp"},
		{"cat", "/tmp/x"},
		{"grep", "pat", "/tmp/x"},
		{"grep", "pat", "/tmp", "--recursive"},
		{"find", "/tmp", "*.go"},
	}
	for _, c := range cases {
		mode, err := EnforceShellAllowlist(c)
		require.NoErrorf(t, err, "argv=%v", c)
		require.Equal(t, ShellModeInternal, mode)
	}
}

func TestEnforceShellAllowlistGrepRejectsNonRecursiveFourthArg(t *testing.T) {
	_, err := EnforceShellAllowlist([]string{"grep", "pat", "/tmp", "-r"})
	require.Error(t, err)
}

func TestEnforceShellAllowlistExternal(t *testing.T) {
	mode, err := EnforceShellAllowlist([]string{"git", "status"})
	require.NoError(t, err)
	require.Equal(t, ShellModeExternal, mode)
}

func TestEnforceShellAllowlistRejectsUnknown(t *testing.T) {
	_, err := EnforceShellAllowlist([]string{"rm", "-rf", "/"})
	require.Error(t, err)
}
