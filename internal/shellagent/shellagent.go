// Package shellagent implements the shell.exec step action: argv
// normalization, an in-process interpreter for the narrow set of internal
// builtins the allow-list permits, and direct (non-shell) subprocess
// execution for the exact-match external allow-list, with combined,
// truncated output. External commands run under a hard wall-clock timeout;
// the builtins compare elapsed time against the same budget only at their
// iteration points.
package shellagent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/policy"
	"github.com/rcourtman/liteclaw/internal/shellagent/shlex"
)

// NormalizedCommand is the result of validating a step's raw shell inputs.
type NormalizedCommand struct {
	Argv            []string
	Cwd             string
	TimeoutMS       int
	MaxOutputChars  int
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

// NormalizeInputs accepts a step's "command" input as either a list of
// tokens or a shell-syntax string (tokenized with shlex, never executed
// through a shell), validates it's non-empty and free of shell control
// operators, and clamps timeout/output-size inputs to their valid ranges.
func NormalizeInputs(inputs map[string]any) (NormalizedCommand, error) {
	raw, ok := inputs["command"]
	if !ok {
		return NormalizedCommand{}, apperr.BadRequest("shell.exec requires a command string or argv list")
	}

	var argv []string
	switch v := raw.(type) {
	case []string:
		argv = v
	case []any:
		for _, item := range v {
			argv = append(argv, fmt.Sprintf("%v", item))
		}
	case string:
		tokens, err := shlex.Split(v)
		if err != nil {
			return NormalizedCommand{}, apperr.BadRequest("Invalid shell command syntax: %v", err)
		}
		argv = tokens
	default:
		return NormalizedCommand{}, apperr.BadRequest("shell.exec requires a command string or argv list")
	}
	if len(argv) == 0 {
		return NormalizedCommand{}, apperr.BadRequest("shell.exec command is empty")
	}

	if err := policy.EnforceShellOperators(argv); err != nil {
		return NormalizedCommand{}, err
	}

	timeoutMS := clamp(toInt(inputs["timeout_ms"], 10000), 100, 120000)
	maxOutputChars := clamp(toInt(inputs["max_output_chars"], 20000), 256, 200000)

	cwdInput := "."
	if c, ok := inputs["cwd"].(string); ok && c != "" {
		cwdInput = c
	}
	cwd, err := filepath.Abs(cwdInput)
	if err != nil {
		return NormalizedCommand{}, apperr.BadRequest("Invalid cwd: %v", err)
	}

	return NormalizedCommand{Argv: argv, Cwd: cwd, TimeoutMS: timeoutMS, MaxOutputChars: maxOutputChars}, nil
}

// normalizeArgPath resolves a single argv argument relative to cwd if it
// isn't already absolute.
func normalizeArgPath(arg, cwd string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(cwd, arg)
}

// StepResult is what a completed (or timed-out) shell.exec step reports.
type StepResult struct {
	Argv           []string
	Cwd            string
	Stdout         string
	Stderr         string
	Output         string
	Truncated      bool
	TimedOut       bool
	ExitCode       int
	TimeoutMS      int
	MaxOutputChars int
}

func truncateOutput(text string, maxOutputChars int) (string, bool) {
	if len(text) <= maxOutputChars {
		return text, false
	}
	return text[:maxOutputChars], true
}

// RunInternal interprets pwd/ls/cat/grep/find directly in-process, scope
// checking every path it touches against the plan's allowed read roots.
func RunInternal(argv []string, cwd string, timeoutMS int, checkScope func(path string) error) (stdout, stderr string, exitCode int, timedOut bool) {
	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	timedOutFn := func() bool { return time.Now().After(deadline) }

	switch argv[0] {
	case "pwd":
		return cwd + "\n", "", 0, false

	case "ls":
		target := cwd
		if len(argv) == 2 {
			target = normalizeArgPath(argv[1], cwd)
		}
		if err := checkScope(target); err != nil {
			return "", err.Error() + "\n", 1, false
		}
		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			return "", fmt.Sprintf("ls target not found: %s\n", target), 1, false
		}
		entries, err := os.ReadDir(target)
		if err != nil {
			return "", fmt.Sprintf("ls target not found: %s\n", target), 1, false
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		if timedOutFn() {
			return "", "command timed out\n", 124, true
		}
		out := strings.Join(names, "\n")
		if len(names) > 0 {
			out += "\n"
		}
		return out, "", 0, false

	case "cat":
		target := normalizeArgPath(argv[1], cwd)
		if err := checkScope(target); err != nil {
			return "", err.Error() + "\n", 1, false
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			return "", fmt.Sprintf("cat target not found: %s\n", target), 1, false
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return "", fmt.Sprintf("cat target not found: %s\n", target), 1, false
		}
		if !isValidUTF8(data) {
			return "", fmt.Sprintf("cat only supports UTF-8 text files: %s\n", target), 1, false
		}
		if timedOutFn() {
			return "", "command timed out\n", 124, true
		}
		return string(data), "", 0, false

	case "grep":
		pattern := argv[1]
		target := normalizeArgPath(argv[2], cwd)
		recursive := len(argv) == 4 && argv[3] == "--recursive"
		if err := checkScope(target); err != nil {
			return "", err.Error() + "\n", 1, false
		}
		var files []string
		info, err := os.Stat(target)
		switch {
		case err != nil:
			return "", fmt.Sprintf("grep target not found: %s\n", target), 1, false
		case info.IsDir():
			files = listDirFiles(target, recursive)
		default:
			files = []string{target}
		}
		var matches []string
		for _, f := range files {
			if timedOutFn() {
				return "", "command timed out\n", 124, true
			}
			if err := checkScope(f); err != nil {
				continue
			}
			data, err := os.ReadFile(f)
			if err != nil {
				continue
			}
			lines := strings.Split(string(data), "\n")
			for i, line := range lines {
				if strings.Contains(line, pattern) {
					matches = append(matches, fmt.Sprintf("%s:%d:%s", f, i+1, line))
				}
			}
		}
		out := strings.Join(matches, "\n")
		if len(matches) > 0 {
			out += "\n"
		}
		return out, "", 0, false

	case "find":
		root := normalizeArgPath(argv[1], cwd)
		pattern := "*"
		if len(argv) == 3 {
			pattern = argv[2]
		}
		if err := checkScope(root); err != nil {
			return "", err.Error() + "\n", 1, false
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return "", fmt.Sprintf("find root not found: %s\n", root), 1, false
		}
		var matches []string
		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if timedOutFn() {
				return errTimedOut
			}
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				if scopeErr := checkScope(path); scopeErr == nil {
					matches = append(matches, path)
				}
			}
			return nil
		})
		if walkErr == errTimedOut {
			return "", "command timed out\n", 124, true
		}
		sort.Strings(matches)
		out := strings.Join(matches, "\n")
		if len(matches) > 0 {
			out += "\n"
		}
		return out, "", 0, false
	}

	return "", fmt.Sprintf("Unsupported internal command: %s\n", argv[0]), 1, false
}

var errTimedOut = fmt.Errorf("shell command timed out")

func listDirFiles(dir string, recursive bool) []string {
	var out []string
	if recursive {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				out = append(out, path)
			}
			return nil
		})
	} else {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					out = append(out, filepath.Join(dir, e.Name()))
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// RunExternal execs argv directly (never through a shell) with a hard
// timeout, combining captured stdout/stderr.
func RunExternal(argv []string, cwd string, timeoutMS int) (stdout, stderr string, exitCode int, timedOut bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", "command timed out\n", 124, true
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
				return "", fmt.Sprintf("command not found: %s\n", argv[0]), 127, false
			}
			return "", fmt.Sprintf("command execution failed: %v\n", err), 1, false
		}
	}
	code := cmd.ProcessState.ExitCode()
	return outBuf.String(), errBuf.String(), code, false
}

// CombineAndTruncate joins stdout+stderr the way the reference backend
// does, then applies the output cap.
func CombineAndTruncate(stdout, stderr string, maxOutputChars int) (string, bool) {
	return truncateOutput(stdout+stderr, maxOutputChars)
}
