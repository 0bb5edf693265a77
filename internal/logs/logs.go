// Package logs reads back the backend.log file logging.Setup writes to,
// supporting a bounded tail, a bounded case-insensitive substring search,
// and a redacted export suitable for attaching to a support request.
package logs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Tail returns the last clamp(n, 1, 2000) lines of the log file at path.
func Tail(path string, n int) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	n = clamp(n, 1, 2000)
	if n >= len(lines) {
		return lines, nil
	}
	return lines[len(lines)-n:], nil
}

// Search returns up to clamp(limit, 1, 5000) lines containing q
// case-insensitively, in file order.
func Search(path, q string, limit int) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	limit = clamp(limit, 1, 5000)
	lowerQ := strings.ToLower(q)

	var matches []string
	for _, line := range lines {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(line), lowerQ) {
			matches = append(matches, line)
		}
	}
	return matches, nil
}

// redact rewrites dataDir's absolute form to {{DATA_DIR}} and each of
// allowedFolders (1-indexed, in order) to {{ALLOWED_FOLDER_<i>}}.
func redact(line, dataDir string, allowedFolders []string) string {
	out := line
	if dataDir != "" {
		out = strings.ReplaceAll(out, dataDir, "{{DATA_DIR}}")
	}
	for i, folder := range allowedFolders {
		if folder == "" {
			continue
		}
		out = strings.ReplaceAll(out, folder, fmt.Sprintf("{{ALLOWED_FOLDER_%d}}", i+1))
	}
	return out
}

// Export renders the full log file, each line redacted, as either
// newline-joined "text" or one {"line": "..."} JSON object per line for
// "jsonl".
func Export(path, dataDir string, allowedFolders []string, format string) (string, error) {
	lines, err := readLines(path)
	if err != nil {
		return "", err
	}

	redacted := make([]string, len(lines))
	for i, line := range lines {
		redacted[i] = redact(line, dataDir, allowedFolders)
	}

	if format == "jsonl" {
		var b strings.Builder
		for _, line := range redacted {
			obj, err := json.Marshal(map[string]string{"line": line})
			if err != nil {
				return "", err
			}
			b.Write(obj)
			b.WriteByte('\n')
		}
		return b.String(), nil
	}

	return strings.Join(redacted, "\n"), nil
}
