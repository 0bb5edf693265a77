package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

// renderTraceMarkdown formats a TaskTrace as a human-readable event log,
// the shape an operator would paste into an incident channel.
func renderTraceMarkdown(trace planmodel.TaskTrace) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task %s\n\n", trace.TaskID)
	fmt.Fprintf(&b, "Plan: %s\n\n", trace.PlanID)
	fmt.Fprintf(&b, "Agent: %s\n\n", trace.Agent)
	fmt.Fprintf(&b, "Status: **%s**\n\n", trace.Status)
	fmt.Fprintf(&b, "Started: %s\n\n", trace.StartedAt.Time().Format(time.RFC3339))
	if trace.EndedAt != nil {
		fmt.Fprintf(&b, "Ended: %s\n\n", trace.EndedAt.Time().Format(time.RFC3339))
	}
	if trace.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n\n", trace.Error)
	}
	fmt.Fprintf(&b, "## Events\n\n")
	for _, e := range trace.Events {
		fmt.Fprintf(&b, "- `%s` **%s** %s\n", e.Timestamp.Time().Format(time.RFC3339), e.Level, e.Message)
	}
	return b.String()
}
