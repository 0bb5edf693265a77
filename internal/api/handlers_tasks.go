package api

import (
	"net/http"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/executor"
	"github.com/rcourtman/liteclaw/internal/planmodel"
)

type tasksExecuteRequest struct {
	Plan            planmodel.Plan `json:"plan"`
	ApprovalTokenID *string        `json:"approval_token_id"`
}

func (s *Server) handleTasksExecute(w http.ResponseWriter, r *http.Request) {
	var req tasksExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	plan := s.Plans.Resolve(req.Plan)
	trace, err := executor.Execute(plan, req.ApprovalTokenID, s.executorDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Traces.LoadIndex()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleTasksGet(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	trace, err := s.Traces.LoadTrace(taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func (s *Server) handleTasksExport(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	trace, err := s.Traces.LoadTrace(taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "md":
		w.Header().Set("Content-Type", "text/markdown")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(renderTraceMarkdown(trace)))
	case "json":
		writeJSON(w, http.StatusOK, trace)
	default:
		writeError(w, apperr.BadRequest("Unsupported export format"))
	}
}
