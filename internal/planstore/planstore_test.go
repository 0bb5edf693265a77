package planstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

func TestSaveAndGet(t *testing.T) {
	s := NewStore()
	plan := planmodel.Plan{PlanID: "p1", EstimatedRisk: "low"}
	s.Save(plan)

	got, err := s.Get("p1")
	require.NoError(t, err)
	require.Equal(t, "low", got.EstimatedRisk)
}

func TestGetUnknownPlanReturnsNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get("missing")
	require.Error(t, err)
}

func TestResolvePrefersStoredPlanOverSubmitted(t *testing.T) {
	s := NewStore()
	s.Save(planmodel.Plan{PlanID: "p1", EstimatedRisk: "medium", RequiresApproval: true})

	submitted := planmodel.Plan{PlanID: "p1", EstimatedRisk: "low", RequiresApproval: false}
	resolved := s.Resolve(submitted)
	require.Equal(t, "medium", resolved.EstimatedRisk)
	require.True(t, resolved.RequiresApproval)
}

func TestResolveFallsBackToSubmittedWhenUnknown(t *testing.T) {
	s := NewStore()
	submitted := planmodel.Plan{PlanID: "unknown", EstimatedRisk: "low"}
	resolved := s.Resolve(submitted)
	require.Equal(t, "low", resolved.EstimatedRisk)
}
