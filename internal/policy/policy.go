// Package policy enforces the path-containment and shell command rules a
// Plan's steps must satisfy before they run: blocked system roots, the
// configured and plan-declared allowed-read scopes, and the shell
// deny-keyword/operator/allow-list chain.
package policy

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rcourtman/liteclaw/internal/apperr"
)

// blockedRoots lists filesystem roots that are never readable, regardless
// of configuration, mirroring the teacher's hardcoded deny-list for
// destructive and system-critical paths.
func blockedRoots() []string {
	if runtime.GOOS == "windows" {
		sysRoot := os.Getenv("SystemRoot")
		if sysRoot == "" {
			sysRoot = `C:\Windows`
		}
		return []string{
			sysRoot,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\ProgramData`,
		}
	}
	return []string{
		"/bin", "/boot", "/dev", "/etc", "/lib", "/lib64",
		"/proc", "/run", "/sbin", "/sys", "/usr", "/var",
	}
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Path may not exist yet (e.g. a cwd about to be created); fall
		// back to the absolute, non-symlink-resolved form.
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

func withinAny(candidate string, roots []string) bool {
	for _, root := range roots {
		resolvedRoot, err := resolve(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(resolvedRoot, candidate)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..") {
			return true
		}
	}
	return false
}

func isBlocked(candidate string) bool {
	return withinAny(candidate, blockedRoots())
}

// EnsureFileReadScope applies the exact seven-step containment check: blocked
// system path, then configured allowed folders, then the plan's own
// file/read permission targets. Both gates must pass.
func EnsureFileReadScope(targetPath string, configAllowedRoots, planAllowedRoots []string) (string, error) {
	resolved, err := resolve(targetPath)
	if err != nil {
		return "", apperr.BadRequest("Could not resolve path: %s", targetPath)
	}

	if isBlocked(resolved) {
		return "", apperr.Forbidden("Blocked path: %s", resolved)
	}
	if len(configAllowedRoots) == 0 {
		return "", apperr.Forbidden("No folders are allowed yet. Add a folder to continue.")
	}
	if !withinAny(resolved, configAllowedRoots) {
		return "", apperr.Forbidden("Path is outside configured allowed folders: %s", resolved)
	}
	if len(planAllowedRoots) == 0 {
		return "", apperr.Forbidden("No allowed file read roots configured")
	}
	if !withinAny(resolved, planAllowedRoots) {
		return "", apperr.Forbidden("Path is outside allowed read scope: %s", resolved)
	}
	return resolved, nil
}

// AllowedReadRootsFromPermissions extracts the resolved targets of a plan's
// file/read permission scopes.
func AllowedReadRootsFromPermissions(targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		resolved, err := resolve(t)
		if err != nil {
			continue
		}
		out = append(out, resolved)
	}
	return out
}

// shellDenyKeywords lists single argv tokens that are never permitted in a
// shell.exec command, regardless of the allow-list outcome.
func shellDenyKeywords() map[string]struct{} {
	base := []string{"curl", "wget", "ssh"}
	var platform []string
	if runtime.GOOS == "windows" {
		platform = []string{"del", "erase", "rmdir", "rd", "format", "diskpart", "powershell", "cmd", "reg", "schtasks"}
	} else {
		platform = []string{"rm", "sudo", "chmod", "chown", "dd", "mkfs", "mount"}
	}
	set := make(map[string]struct{}, len(base)+len(platform))
	for _, k := range append(base, platform...) {
		set[k] = struct{}{}
	}
	return set
}

// forbiddenOperators are substrings that, if present in the joined argv,
// mean the caller tried to smuggle shell interpretation into an argv-only
// execution path.
var forbiddenOperators = []string{";", "&&", "||", "|", ">", ">>", "<"}

// EnforceShellOperators rejects an argv whose joined form contains a shell
// control operator — this path never invokes a shell, so these can only be
// an attempt to abuse a command that blindly re-joins its arguments.
func EnforceShellOperators(argv []string) error {
	joined := strings.Join(argv, " ")
	for _, op := range forbiddenOperators {
		if strings.Contains(joined, op) {
			return apperr.Forbidden("Command contains forbidden shell operators")
		}
	}
	return nil
}

// EnforceShellDenyKeywords rejects an argv containing any single deny-listed
// token, case-insensitively, anywhere in its positions.
func EnforceShellDenyKeywords(argv []string) error {
	deny := shellDenyKeywords()
	for _, tok := range argv {
		if _, blocked := deny[strings.ToLower(tok)]; blocked {
			return apperr.Forbidden("Command token denied by policy: %s", tok)
		}
	}
	return nil
}

// ShellMode distinguishes an internally-interpreted builtin from an
// externally exec'd allow-listed command.
type ShellMode string

const (
	ShellModeInternal ShellMode = "internal"
	ShellModeExternal ShellMode = "external"
)

var externalAllowlist = [][]string{
	{"git", "status"},
	{"git", "diff"},
	{"git", "log"},
	{"python", "--version"},
	{"python", "-m", "pip", "--version"},
	{"node", "--version"},
	{"npm", "--version"},
}

func argvEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EnforceShellAllowlist classifies argv as an internal builtin or an
// exact-match external command, returning an error if neither applies. The
// internal builtins accept a narrow, non-POSIX argument shape (documented
// in DESIGN.md): pwd takes no args; ls takes zero or one; cat takes exactly
// one; grep takes a pattern, a target, and an optional literal
// "--recursive"; find takes a root and an optional pattern.
func EnforceShellAllowlist(argv []string) (ShellMode, error) {
	if len(argv) == 0 {
		return "", apperr.BadRequest("Empty command")
	}

	switch argv[0] {
	case "pwd":
		if len(argv) == 1 {
			return ShellModeInternal, nil
		}
	case "ls":
		if len(argv) == 1 || len(argv) == 2 {
			return ShellModeInternal, nil
		}
	case "cat":
		if len(argv) == 2 {
			return ShellModeInternal, nil
		}
	case "grep":
		if len(argv) == 3 {
			return ShellModeInternal, nil
		}
		if len(argv) == 4 {
			if argv[3] != "--recursive" {
				return "", apperr.Forbidden("grep only supports a literal --recursive flag")
			}
			return ShellModeInternal, nil
		}
	case "find":
		if len(argv) == 2 || len(argv) == 3 {
			return ShellModeInternal, nil
		}
	}

	for _, allowed := range externalAllowlist {
		if argvEqual(argv, allowed) {
			return ShellModeExternal, nil
		}
	}

	return "", apperr.Forbidden("Command not allowlisted: %s", strings.Join(argv, " "))
}
