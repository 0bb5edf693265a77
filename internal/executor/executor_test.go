package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/approval"
	"github.com/rcourtman/liteclaw/internal/planmodel"
	"github.com/rcourtman/liteclaw/internal/tracestore"
)

func newDeps(t *testing.T, allowedRoots []string, shellEnabled bool) Deps {
	t.Helper()
	traces, err := tracestore.NewStore(t.TempDir())
	require.NoError(t, err)
	return Deps{
		Approvals:          approval.NewStore(),
		Traces:             traces,
		ConfigAllowedRoots: func() []string { return allowedRoots },
		ShellEnabled:       func() bool { return shellEnabled },
	}
}

func TestExecuteConversationRespond(t *testing.T) {
	plan := planmodel.Plan{
		PlanID: "p1",
		Steps: []planmodel.Step{
			{Agent: "conversation", Action: "conversation.respond", Inputs: map[string]any{"prompt": "hi"}, SideEffects: "none"},
		},
	}

	trace, err := Execute(plan, nil, newDeps(t, nil, false))
	require.NoError(t, err)
	require.Equal(t, "completed", trace.Status)
	require.Equal(t, "conversation", trace.Agent)

	found := false
	for _, e := range trace.Events {
		if e.Message == "Conversation response generated" {
			found = true
			require.Equal(t, "Echo: hi", e.Detail["response"])
		}
	}
	require.True(t, found)
}

func TestExecuteFileSearchRequiresApprovalToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("needle here"), 0o644))

	plan := planmodel.Plan{
		PlanID:           "p2",
		RequiresApproval: true,
		Steps: []planmodel.Step{
			{
				Agent:       "file",
				Action:      "file.search",
				SideEffects: "none",
				Inputs:      map[string]any{"root": dir, "query": "needle"},
				Permissions: []planmodel.PermissionScope{{Type: "file", Mode: "read", Targets: []string{dir}}},
			},
		},
	}

	deps := newDeps(t, []string{dir}, false)

	_, err := Execute(plan, nil, deps)
	require.Error(t, err)

	token := deps.Approvals.Issue(plan.PlanID)
	trace, err := Execute(plan, &token.TokenID, deps)
	require.NoError(t, err)
	require.Equal(t, "completed", trace.Status)
}

func TestExecuteDryRunWithSideEffectsIsForbidden(t *testing.T) {
	plan := planmodel.Plan{
		PlanID: "p3",
		DryRun: true,
		Steps: []planmodel.Step{
			{Action: "shell.exec", SideEffects: "exec", Inputs: map[string]any{"command": "pwd"}},
		},
	}

	_, err := Execute(plan, nil, newDeps(t, nil, true))
	require.Error(t, err)
}

func TestExecuteShellExecSuccess(t *testing.T) {
	dir := t.TempDir()
	plan := planmodel.Plan{
		PlanID: "p4",
		Steps: []planmodel.Step{
			{
				Agent:       "shell",
				Action:      "shell.exec",
				SideEffects: "exec",
				Inputs:      map[string]any{"command": "pwd", "cwd": dir},
				Permissions: []planmodel.PermissionScope{{Type: "file", Mode: "read", Targets: []string{dir}}},
			},
		},
	}

	deps := newDeps(t, []string{dir}, true)
	token := deps.Approvals.Issue(plan.PlanID)
	trace, err := Execute(plan, &token.TokenID, deps)
	require.NoError(t, err)
	require.Equal(t, "completed", trace.Status)
	require.Equal(t, "shell", trace.Agent)

	var sawCompleted bool
	for _, e := range trace.Events {
		if e.Message == "shell command completed" {
			sawCompleted = true
			require.Equal(t, 0, e.Detail["exit_code"])
		}
	}
	require.True(t, sawCompleted)
}

func TestExecuteShellDisabledPropagatesAsHTTPError(t *testing.T) {
	plan := planmodel.Plan{
		PlanID: "p5",
		Steps: []planmodel.Step{
			{Action: "shell.exec", SideEffects: "exec", Inputs: map[string]any{"command": "pwd"}},
		},
	}

	deps := newDeps(t, nil, false)
	token := deps.Approvals.Issue(plan.PlanID)
	_, err := Execute(plan, &token.TokenID, deps)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Shell is disabled")
}

func TestExecuteUnsupportedActionReturnsHTTPError(t *testing.T) {
	plan := planmodel.Plan{
		PlanID: "p6",
		Steps: []planmodel.Step{
			{Action: "bogus.action", SideEffects: "none"},
		},
	}

	_, err := Execute(plan, nil, newDeps(t, nil, false))
	require.Error(t, err)
}

func TestExecuteFileReadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	plan := planmodel.Plan{
		PlanID: "p7",
		Steps: []planmodel.Step{
			{
				Action:      "file.read_text",
				SideEffects: "none",
				Inputs:      map[string]any{"path": path},
				Permissions: []planmodel.PermissionScope{{Type: "file", Mode: "read", Targets: []string{dir}}},
			},
		},
	}

	trace, err := Execute(plan, nil, newDeps(t, []string{dir}, false))
	require.NoError(t, err)
	require.Equal(t, "completed", trace.Status)

	var sawRead bool
	for _, e := range trace.Events {
		if e.Message == "file read completed" {
			sawRead = true
			require.Equal(t, "hello world", e.Detail["content"])
		}
	}
	require.True(t, sawRead)
}
