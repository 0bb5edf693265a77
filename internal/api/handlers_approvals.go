package api

import (
	"net/http"

	"github.com/rcourtman/liteclaw/internal/actioncard"
)

type planIDRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleApprovalsActionCard(w http.ResponseWriter, r *http.Request) {
	var req planIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.Plans.Get(req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actioncard.FromPlan(plan))
}

func (s *Server) handleApprovalsIssueToken(w http.ResponseWriter, r *http.Request) {
	var req planIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.Plans.Get(req.PlanID); err != nil {
		writeError(w, err)
		return
	}
	token := s.Approvals.Issue(req.PlanID)
	writeJSON(w, http.StatusOK, token)
}
