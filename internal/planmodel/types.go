// Package planmodel defines the shared data types that flow through the
// router, approval store, policy enforcer, and executor: plans, permission
// scopes, steps, approval tokens, and task traces.
package planmodel

import (
	"encoding/json"
	"time"
)

// Timestamp marshals as ISO-8601 UTC with a trailing "Z", truncated to
// whole seconds, matching the reference backend's iso() helper. The zero
// value marshals the same as any other Timestamp; callers that need an
// optional timestamp use a *Timestamp instead.
type Timestamp time.Time

// NewTimestamp truncates t to second precision in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Second))
}

// NowTimestamp returns the current time as a Timestamp.
func NowTimestamp() Timestamp {
	return NewTimestamp(time.Now())
}

// Time unwraps the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Before reports whether t occurs before u.
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After reports whether t occurs after u.
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Add returns t plus d, truncated back to second precision.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return NewTimestamp(time.Time(t).Add(d))
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format("2006-01-02T15:04:05Z"))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// PermissionScope names a resource type and access mode a step (or the
// plan as a whole) is allowed to touch, and the concrete targets the grant
// applies to.
type PermissionScope struct {
	Type    string   `json:"type"` // "file", "shell", "network", "cloud"
	Mode    string   `json:"mode"` // "read", "write", "exec", "fetch"
	Targets []string `json:"targets"`
	Reason  string   `json:"reason,omitempty"`
}

// Step is one unit of work inside a Plan.
type Step struct {
	StepID        string            `json:"step_id"`
	Agent         string            `json:"agent"` // "conversation", "file", "shell", "browser"
	Action        string            `json:"action"`
	Inputs        map[string]any    `json:"inputs"`
	OutputsSchema map[string]any    `json:"outputs_schema,omitempty"`
	SideEffects   string            `json:"side_effects"` // "none", "write", "exec", "network"
	Permissions   []PermissionScope `json:"permissions"`
	Risk          string            `json:"risk"` // "low", "medium", "high"
	Preview       string            `json:"preview"`
}

// Plan is the immutable output of the router, stored server-side by ID and
// referenced (never trusted verbatim) by later approval/execution calls.
type Plan struct {
	PlanID              string            `json:"plan_id"`
	CreatedAt           Timestamp         `json:"created_at"`
	UserIntentSummary   string            `json:"user_intent_summary"`
	RequiresApproval    bool              `json:"requires_approval"`
	RequiredPermissions []PermissionScope `json:"required_permissions"`
	Steps               []Step            `json:"steps"`
	EstimatedRisk       string            `json:"estimated_risk"` // "low", "medium", "high"
	DryRun              bool              `json:"dry_run"`
	RouterConfidence    float64           `json:"router_confidence"`
	RouterFallbackUsed  bool              `json:"router_fallback_used"`
	Explain             string            `json:"explain"`
}

// ActionCardTargets summarizes the concrete resources a Plan touches, for
// display to a human approver.
type ActionCardTargets struct {
	Paths    []string `json:"paths,omitempty"`
	Files    []string `json:"files,omitempty"`
	Commands []string `json:"commands,omitempty"`
	URLs     []string `json:"urls,omitempty"`
}

// ActionCard is the human-facing approval summary derived from a Plan.
type ActionCard struct {
	CardID          string            `json:"card_id"`
	PlanID          string            `json:"plan_id"`
	WhatWillHappen  []string          `json:"what_will_happen"`
	Targets         ActionCardTargets `json:"targets"`
	Warnings        []string          `json:"warnings"`
	RequiresApproval bool             `json:"requires_approval"`
}

// ApprovalToken grants one-time permission to execute a specific Plan.
type ApprovalToken struct {
	TokenID    string     `json:"token_id"`
	PlanID     string     `json:"plan_id"`
	IssuedAt   Timestamp  `json:"issued_at"`
	ExpiresAt  Timestamp  `json:"expires_at"`
	TTLSeconds int        `json:"ttl_seconds"`
	OneTimeUse bool       `json:"one_time_use"`
	ConsumedAt *Timestamp `json:"consumed_at,omitempty"`
}

// TaskEvent is one timestamped entry in a TaskTrace's event log.
type TaskEvent struct {
	Timestamp Timestamp      `json:"timestamp"`
	Level     string         `json:"level"` // "debug", "info", "warn", "error"
	StepID    string         `json:"step_id,omitempty"`
	Message   string         `json:"message"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// TaskTrace is the durable record of one plan execution.
type TaskTrace struct {
	TaskID    string      `json:"task_id"`
	PlanID    string      `json:"plan_id"`
	Agent     string      `json:"agent"`
	Status    string      `json:"status"` // "queued", "running", "completed", "failed", "denied", "timeout"
	StartedAt Timestamp   `json:"started_at"`
	EndedAt   *Timestamp  `json:"ended_at,omitempty"`
	Events    []TaskEvent `json:"events"`
	Error     string      `json:"error,omitempty"`
}

// TaskSummary is the index-file projection of a TaskTrace.
type TaskSummary struct {
	TaskID    string     `json:"task_id"`
	PlanID    string     `json:"plan_id"`
	Status    string     `json:"status"`
	StartedAt Timestamp  `json:"started_at"`
	EndedAt   *Timestamp `json:"ended_at,omitempty"`
	Agent     string     `json:"agent"`
}

// Summary projects a TaskTrace down to its TaskSummary.
func (t TaskTrace) Summary() TaskSummary {
	return TaskSummary{
		TaskID:    t.TaskID,
		PlanID:    t.PlanID,
		Status:    t.Status,
		StartedAt: t.StartedAt,
		EndedAt:   t.EndedAt,
		Agent:     t.Agent,
	}
}

// ShellConfig toggles whether shell.exec steps may run at all.
type ShellConfig struct {
	Enabled bool `json:"enabled"`
}

// AppConfig is the persisted server configuration.
type AppConfig struct {
	AllowedFolders []string    `json:"allowed_folders"`
	Shell          ShellConfig `json:"shell"`
}

// ModelEntry describes one registered model.
type ModelEntry struct {
	ModelID     string `json:"model_id"`
	DisplayName string `json:"display_name"`
	LocalPath   string `json:"local_path,omitempty"`
	Status      string `json:"status"` // "registered" or "download_stubbed"
}

// ModelsState is the persisted model registry.
type ModelsState struct {
	InstalledModels []ModelEntry `json:"installed_models"`
	DefaultModelID  string       `json:"default_model_id,omitempty"`
}

// DoctorCheck is the result of one doctor-report probe.
type DoctorCheck struct {
	Name           string         `json:"name"`
	Status         string         `json:"status"` // "ok", "warn", "fail"
	Details        string         `json:"details"`
	Metrics        map[string]any `json:"metrics,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
}

// DoctorReport is the full, ordered set of doctor checks plus a summary.
type DoctorReport struct {
	ReportID      string        `json:"report_id"`
	GeneratedAt   Timestamp     `json:"generated_at"`
	OverallStatus string        `json:"overall_status"`
	Checks        []DoctorCheck `json:"checks"`
	Summary       string        `json:"summary"`
}
