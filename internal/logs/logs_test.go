package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backend.log")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTailReturnsLastNLines(t *testing.T) {
	path := writeLog(t, "one", "two", "three", "four")
	lines, err := Tail(path, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"three", "four"}, lines)
}

func TestTailClampsBelowOne(t *testing.T) {
	path := writeLog(t, "one", "two")
	lines, err := Tail(path, 0)
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	path := writeLog(t, "INFO starting up", "WARN disk low", "INFO shutdown")
	lines, err := Search(path, "info", 10)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestSearchRespectsLimit(t *testing.T) {
	path := writeLog(t, "match a", "match b", "match c")
	lines, err := Search(path, "match", 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestExportRedactsDataDirAndAllowedFolders(t *testing.T) {
	path := writeLog(t, "reading /data/app/config.json", "scanning /home/user/projects/foo.go")
	out, err := Export(path, "/data/app", []string{"/home/user/projects"}, "text")
	require.NoError(t, err)
	require.Contains(t, out, "{{DATA_DIR}}/config.json")
	require.Contains(t, out, "{{ALLOWED_FOLDER_1}}/foo.go")
}

func TestExportJSONL(t *testing.T) {
	path := writeLog(t, "line one", "line two")
	out, err := Export(path, "", nil, "jsonl")
	require.NoError(t, err)
	require.Contains(t, out, `{"line":"line one"}`)
}
