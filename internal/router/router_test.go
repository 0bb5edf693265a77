package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPlanLowConfidenceFallsBack(t *testing.T) {
	plan := BuildPlan(Request{Prompt: "hello there", AllowedFolders: []string{"/tmp"}})
	require.Equal(t, "conversation", plan.Steps[0].Agent)
	require.Len(t, plan.Steps, 1)
	require.True(t, plan.RouterFallbackUsed)
	require.False(t, plan.RequiresApproval)
}

func TestBuildPlanRoutesFileSearchWithQuotedQuery(t *testing.T) {
	plan := BuildPlan(Request{Prompt: `search files for "TODO items"`, AllowedFolders: []string{"/work"}})
	require.Equal(t, "file", plan.Steps[0].Agent)
	require.True(t, plan.RequiresApproval)
	require.Equal(t, "file.search", plan.Steps[0].Action)
	require.Equal(t, "TODO items", plan.Steps[0].Inputs["query"])
}

func TestBuildPlanRoutesFileSearchForProjectDirectory(t *testing.T) {
	plan := BuildPlan(Request{Prompt: "find my project directory", AllowedFolders: []string{"/work"}})
	require.Equal(t, "file", plan.Steps[0].Agent)
	require.GreaterOrEqual(t, plan.RouterConfidence, RouterConfidenceThreshold)
}

func TestBuildPlanRoutesShellExecAndIgnoresDryRun(t *testing.T) {
	plan := BuildPlan(Request{
		Prompt:         "please execute command `ls -la`",
		AllowedFolders: []string{"/work"},
		DryRun:         true,
	})
	require.Equal(t, "shell", plan.Steps[0].Agent)
	require.False(t, plan.DryRun, "shell plans always execute for real")
	require.Len(t, plan.Steps[0].Permissions, 2)
	require.Equal(t, "ls -la", plan.Steps[0].Inputs["command"])
}

func TestBuildPlanRoutesShellExecOnTerminalIndicator(t *testing.T) {
	plan := BuildPlan(Request{Prompt: "open a terminal and run `pwd`", AllowedFolders: []string{"/work"}})
	require.Equal(t, "shell", plan.Steps[0].Agent)
}

func TestBuildPlanUnmatchedPromptFallsBackToConversation(t *testing.T) {
	plan := BuildPlan(Request{Prompt: "what time is it", AllowedFolders: []string{"/work"}})
	require.Equal(t, "conversation", plan.Steps[0].Agent)
	require.Equal(t, 0.55, plan.RouterConfidence)
}

func TestDetectSearchQueryDefaultsToTODO(t *testing.T) {
	require.Equal(t, "TODO", detectSearchQuery("search files for something"))
}

func TestExtractShellCommandPrefersBacktick(t *testing.T) {
	require.Equal(t, "pwd -P", extractShellCommand("run `pwd -P` now"))
}

func TestExtractShellCommandFallsBackToPwd(t *testing.T) {
	require.Equal(t, "pwd", extractShellCommand("do a thing"))
}
