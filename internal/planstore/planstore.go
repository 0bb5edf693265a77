// Package planstore holds Plans issued by the router, keyed by plan_id, so
// that later action-card, issue-token, and execute calls can validate
// against the server's own record instead of trusting a client-submitted
// plan verbatim.
package planstore

import (
	"sync"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/planmodel"
)

// Store is a mutex-guarded, in-memory table of issued plans, following the
// same pattern as internal/approval's token store.
type Store struct {
	mu    sync.Mutex
	plans map[string]planmodel.Plan
}

// NewStore returns an empty plan store.
func NewStore() *Store {
	return &Store{plans: make(map[string]planmodel.Plan)}
}

// Save records plan under its own PlanID, overwriting any prior entry.
func (s *Store) Save(plan planmodel.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.PlanID] = plan
}

// Get looks up a previously saved plan by id.
func (s *Store) Get(planID string) (planmodel.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return planmodel.Plan{}, apperr.NotFound("Plan not found: %s", planID)
	}
	return plan, nil
}

// Resolve prefers the server's stored copy of submitted.PlanID when one
// exists, falling back to the submitted plan itself — the executor trusts
// its own record of a plan over whatever a client resends.
func (s *Store) Resolve(submitted planmodel.Plan) planmodel.Plan {
	if submitted.PlanID == "" {
		return submitted
	}
	if stored, err := s.Get(submitted.PlanID); err == nil {
		return stored
	}
	return submitted
}
