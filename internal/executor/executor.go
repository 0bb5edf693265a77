// Package executor runs a Plan's steps against a fresh TaskTrace,
// enforcing the dry-run/side-effect guard and approval-token consumption
// before any step runs, then dispatching each step to the agent that
// implements its action and recording every stage as a TaskEvent.
package executor

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rcourtman/liteclaw/internal/actioncard"
	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/approval"
	"github.com/rcourtman/liteclaw/internal/fileagent"
	"github.com/rcourtman/liteclaw/internal/planmodel"
	"github.com/rcourtman/liteclaw/internal/policy"
	"github.com/rcourtman/liteclaw/internal/shellagent"
	"github.com/rcourtman/liteclaw/internal/tracestore"
)

// Deps bundles the components a plan execution needs.
type Deps struct {
	Approvals          *approval.Store
	Traces             *tracestore.Store
	ConfigAllowedRoots func() []string
	ShellEnabled       func() bool
}

func stringInput(inputs map[string]any, key, def string) string {
	if v, ok := inputs[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intInput(inputs map[string]any, key string, def int) int {
	switch v := inputs[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func globsInput(inputs map[string]any) []string {
	switch v := inputs["globs"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Execute runs plan's steps into a fresh TaskTrace. tokenID is the
// caller-supplied approval token, or nil if none was given.
func Execute(plan planmodel.Plan, tokenID *string, deps Deps) (planmodel.TaskTrace, error) {
	agent := ""
	if len(plan.Steps) > 0 {
		agent = plan.Steps[0].Agent
	}

	trace := planmodel.TaskTrace{
		TaskID:    uuid.NewString(),
		PlanID:    plan.PlanID,
		Agent:     agent,
		Status:    "running",
		StartedAt: planmodel.NowTimestamp(),
		Events:    []planmodel.TaskEvent{},
	}

	if plan.DryRun && actioncard.HasSideEffects(plan) {
		return planmodel.TaskTrace{}, apperr.Forbidden("Dry-run plans cannot execute side-effect steps")
	}

	tokenRequired := plan.RequiresApproval || actioncard.HasSideEffects(plan)
	token, err := deps.Approvals.Consume(plan.PlanID, tokenID, tokenRequired)
	if err != nil {
		return planmodel.TaskTrace{}, err
	}
	if token != nil {
		trace.Events = append(trace.Events, event("", "info", "Approval token validated", map[string]any{"token_id": token.TokenID}))
		log.Info().Str("task_id", trace.TaskID).Msg("approval token validated")
	}

	planAllowedRoots := policy.AllowedReadRootsFromPermissions(permissionTargets(plan, "file", "read"))
	configAllowedRoots := deps.ConfigAllowedRoots()

	for _, step := range plan.Steps {
		trace.Events = append(trace.Events, event(step.StepID, "info", fmt.Sprintf("Executing %s", step.Action), map[string]any{"preview": step.Preview}))

		switch step.Action {
		case "file.search":
			root := stringInput(step.Inputs, "root", ".")
			query := stringInput(step.Inputs, "query", "TODO")
			globs := globsInput(step.Inputs)
			maxResults := intInput(step.Inputs, "max_results", 10)
			maxSnippetChars := intInput(step.Inputs, "max_snippet_chars", 240)

			trace.Events = append(trace.Events, event(step.StepID, "info", "search started", map[string]any{
				"root": root, "query": query, "max_results": maxResults,
			}))

			result, err := fileagent.Search(root, query, globs, maxResults, maxSnippetChars, configAllowedRoots, planAllowedRoots)
			if err != nil {
				return failTrace(deps, trace, err)
			}

			trace.Events = append(trace.Events, event(step.StepID, "info", fmt.Sprintf("scanned %d files", result.ScannedFiles), map[string]any{
				"scanned_files":         result.ScannedFiles,
				"skipped_pattern_files": result.SkippedPatternFiles,
				"skipped_binary_files":  result.SkippedBinaryFiles,
			}))
			for _, w := range result.Warnings {
				trace.Events = append(trace.Events, event(step.StepID, "warn", w, nil))
			}
			trace.Events = append(trace.Events, event(step.StepID, "info", fmt.Sprintf("search completed in %d ms", result.ElapsedMS), map[string]any{
				"count": len(result.Results), "results": result.Results, "elapsed_ms": result.ElapsedMS,
			}))
			log.Info().Str("task_id", trace.TaskID).Int("count", len(result.Results)).Msg("search completed")

		case "file.read_text":
			path := stringInput(step.Inputs, "path", "")
			maxChars := intInput(step.Inputs, "max_chars", 20000)
			result, err := fileagent.ReadText(path, maxChars, configAllowedRoots, planAllowedRoots)
			if err != nil {
				return failTrace(deps, trace, err)
			}
			trace.Events = append(trace.Events, event(step.StepID, "info", "file read completed", map[string]any{
				"path": result.Path, "content": result.Content, "truncated": result.Truncated,
				"returned_chars": result.ReturnedChars, "total_chars": result.TotalChars,
			}))
			log.Info().Str("task_id", trace.TaskID).Msg("file read completed")

		case "conversation.respond":
			prompt := stringInput(step.Inputs, "prompt", "")
			response := "Echo: " + prompt
			trace.Events = append(trace.Events, event(step.StepID, "info", "Conversation response generated", map[string]any{"response": response}))
			log.Info().Str("task_id", trace.TaskID).Msg("conversation response generated")

		case "shell.exec":
			result, err := executeShellStep(step, configAllowedRoots, planAllowedRoots, deps)
			if err != nil {
				return failTrace(deps, trace, err)
			}

			trace.Events = append(trace.Events, event(step.StepID, "info", "shell command preview", map[string]any{
				"argv": result.Argv, "cwd": result.Cwd,
			}))
			trace.Events = append(trace.Events, event(step.StepID, "info", "shell command completed", map[string]any{
				"exit_code": result.ExitCode, "timed_out": result.TimedOut,
				"truncated": result.Truncated, "output": result.Output,
			}))
			if result.Truncated {
				trace.Events = append(trace.Events, event(step.StepID, "warn", "shell output truncated", map[string]any{"max_output_chars": result.MaxOutputChars}))
			}
			if result.TimedOut {
				trace.Status = "timeout"
				ended := planmodel.NowTimestamp()
				trace.EndedAt = &ended
				if perr := deps.Traces.PersistTrace(trace); perr != nil {
					log.Error().Err(perr).Msg("failed to persist timed-out trace")
				}
				log.Warn().Str("task_id", trace.TaskID).Msg("task timed out")
				return trace, nil
			}

		default:
			return failTrace(deps, trace, apperr.BadRequest("Unsupported action: %s", step.Action))
		}
	}

	trace.Status = "completed"
	ended := planmodel.NowTimestamp()
	trace.EndedAt = &ended
	if err := deps.Traces.PersistTrace(trace); err != nil {
		log.Error().Err(err).Msg("failed to persist completed trace")
	}
	log.Info().Str("task_id", trace.TaskID).Msg("task completed")
	return trace, nil
}

// failTrace implements the two-track error handling: an *apperr.Error
// (the Go analogue of an HTTPException) marks the trace failed with a
// generic message, persists it, and propagates as an HTTP error; any other
// error is folded into the trace with its real message, persisted, and
// returned as a 200-carrying failed trace instead of an error.
func failTrace(deps Deps, trace planmodel.TaskTrace, err error) (planmodel.TaskTrace, error) {
	ended := planmodel.NowTimestamp()
	trace.EndedAt = &ended
	trace.Status = "failed"

	if ae, ok := apperr.As(err); ok {
		trace.Error = "HTTP exception during execution"
		if perr := deps.Traces.PersistTrace(trace); perr != nil {
			log.Error().Err(perr).Msg("failed to persist failed trace")
		}
		return planmodel.TaskTrace{}, ae
	}

	trace.Error = err.Error()
	trace.Events = append(trace.Events, event("", "error", "Execution failed", map[string]any{"error": err.Error()}))
	if perr := deps.Traces.PersistTrace(trace); perr != nil {
		log.Error().Err(perr).Msg("failed to persist failed trace")
	}
	log.Error().Str("task_id", trace.TaskID).Err(err).Msg("task failed")
	return trace, nil
}

func executeShellStep(step planmodel.Step, configAllowedRoots, planAllowedRoots []string, deps Deps) (shellagent.StepResult, error) {
	if step.SideEffects != "exec" {
		return shellagent.StepResult{}, apperr.Forbidden("shell.exec step must declare side_effects=exec")
	}
	if !deps.ShellEnabled() {
		return shellagent.StepResult{}, apperr.Forbidden("Shell is disabled in config")
	}

	nc, err := shellagent.NormalizeInputs(step.Inputs)
	if err != nil {
		return shellagent.StepResult{}, err
	}
	log.Info().Strs("argv", nc.Argv).Str("cwd", nc.Cwd).Msg("shell.exec requested")

	if _, err := policy.EnsureFileReadScope(nc.Cwd, configAllowedRoots, planAllowedRoots); err != nil {
		log.Warn().Err(err).Msg("shell.exec denied")
		return shellagent.StepResult{}, err
	}
	if err := policy.EnforceShellDenyKeywords(nc.Argv); err != nil {
		log.Warn().Err(err).Msg("shell.exec denied")
		return shellagent.StepResult{}, err
	}
	mode, err := policy.EnforceShellAllowlist(nc.Argv)
	if err != nil {
		log.Warn().Err(err).Msg("shell.exec denied")
		return shellagent.StepResult{}, err
	}

	checkScope := func(path string) error {
		_, err := policy.EnsureFileReadScope(path, configAllowedRoots, planAllowedRoots)
		return err
	}

	var stdout, stderr string
	var exitCode int
	var timedOut bool
	if mode == policy.ShellModeInternal {
		stdout, stderr, exitCode, timedOut = shellagent.RunInternal(nc.Argv, nc.Cwd, nc.TimeoutMS, checkScope)
	} else {
		stdout, stderr, exitCode, timedOut = shellagent.RunExternal(nc.Argv, nc.Cwd, nc.TimeoutMS)
	}

	output, truncated := shellagent.CombineAndTruncate(stdout, stderr, nc.MaxOutputChars)
	log.Info().Int("exit_code", exitCode).Bool("truncated", truncated).Bool("timed_out", timedOut).Msg("shell.exec completed")

	return shellagent.StepResult{
		Argv: nc.Argv, Cwd: nc.Cwd, Stdout: stdout, Stderr: stderr,
		Output: output, Truncated: truncated, TimedOut: timedOut,
		ExitCode: exitCode, TimeoutMS: nc.TimeoutMS, MaxOutputChars: nc.MaxOutputChars,
	}, nil
}

func event(stepID, level, message string, detail map[string]any) planmodel.TaskEvent {
	return planmodel.TaskEvent{
		Timestamp: planmodel.NowTimestamp(),
		Level:     level,
		StepID:    stepID,
		Message:   message,
		Detail:    detail,
	}
}

func permissionTargets(plan planmodel.Plan, resourceType, mode string) []string {
	var out []string
	for _, step := range plan.Steps {
		for _, perm := range step.Permissions {
			if perm.Type == resourceType && perm.Mode == mode {
				out = append(out, perm.Targets...)
			}
		}
	}
	return out
}
