// Package actioncard derives the human-facing approval summary from a
// stored Plan: a plain-language description of what will happen, the
// concrete resources touched, and a warnings list.
package actioncard

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

// FromPlan is a pure function from a Plan to an ActionCard.
func FromPlan(plan planmodel.Plan) planmodel.ActionCard {
	card := planmodel.ActionCard{
		CardID:           uuid.NewString(),
		PlanID:           plan.PlanID,
		RequiresApproval: plan.RequiresApproval,
		Warnings:         []string{"Review scope before approval."},
	}

	for _, step := range plan.Steps {
		if step.Preview != "" {
			card.WhatWillHappen = append(card.WhatWillHappen, step.Preview)
		} else {
			card.WhatWillHappen = append(card.WhatWillHappen, fmt.Sprintf("Run %s.", step.Action))
		}

		if root, ok := step.Inputs["root"].(string); ok && root != "" {
			card.Targets.Paths = append(card.Targets.Paths, root)
		}
		if folder, ok := step.Inputs["folder"].(string); ok && folder != "" {
			card.Targets.Paths = append(card.Targets.Paths, folder)
		}
		if path, ok := step.Inputs["path"].(string); ok && path != "" {
			card.Targets.Files = append(card.Targets.Files, path)
		}
		if cmd, ok := step.Inputs["command"].(string); ok && cmd != "" {
			card.Targets.Commands = append(card.Targets.Commands, cmd)
		}
		if url, ok := step.Inputs["url"].(string); ok && url != "" {
			card.Targets.URLs = append(card.Targets.URLs, url)
		}

		if step.SideEffects != "none" {
			card.Warnings = append(card.Warnings, fmt.Sprintf("Step %q has side effects: %s.", step.Action, step.SideEffects))
		}
		if step.Action == "file.search" {
			if q, ok := step.Inputs["query"].(string); ok {
				card.Warnings = append(card.Warnings, fmt.Sprintf("This search will look for %q.", q))
			}
		}
	}

	return card
}

// HasSideEffects reports whether any step in the plan has side effects
// other than "none".
func HasSideEffects(plan planmodel.Plan) bool {
	for _, step := range plan.Steps {
		if step.SideEffects != "none" {
			return true
		}
	}
	return false
}
