package api

import (
	"net/http"

	"github.com/rcourtman/liteclaw/internal/router"
)

type routerPlanRequest struct {
	Prompt         string   `json:"prompt"`
	AllowedFolders []string `json:"allowed_folders"`
	DryRun         bool     `json:"dry_run"`
}

func (s *Server) handleRouterPlan(w http.ResponseWriter, r *http.Request) {
	var req routerPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	allowed := req.AllowedFolders
	if len(allowed) == 0 {
		allowed = s.Config.Snapshot().AllowedFolders
	}

	plan := router.BuildPlan(router.Request{
		Prompt:         req.Prompt,
		AllowedFolders: allowed,
		DryRun:         req.DryRun,
	})
	s.Plans.Save(plan)
	writeJSON(w, http.StatusOK, plan)
}
