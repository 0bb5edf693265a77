// Package api wires the router, approval, policy, executor, and storage
// packages into an HTTP surface: a bearer-auth gate in front of every
// /v1/* route and one struct-based handler set per resource, following
// the teacher's handler-holds-its-dependencies shape rather than a web
// framework.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/approval"
	"github.com/rcourtman/liteclaw/internal/config"
	"github.com/rcourtman/liteclaw/internal/executor"
	"github.com/rcourtman/liteclaw/internal/models"
	"github.com/rcourtman/liteclaw/internal/planstore"
	"github.com/rcourtman/liteclaw/internal/tracestore"
)

// Server holds every component a handler might need.
type Server struct {
	AuthToken string
	Version   string
	DataDir   string
	LogPath   string

	Config    *config.Store
	Models    *models.Store
	Approvals *approval.Store
	Traces    *tracestore.Store
	Plans     *planstore.Store
}

// NewServer builds the route table for the whole API surface.
func NewServer(s *Server) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/version", s.handleVersion)

	mux.HandleFunc("GET /v1/config", s.handleConfigGet)
	mux.HandleFunc("POST /v1/config/reload", s.handleConfigReload)

	mux.HandleFunc("GET /v1/models", s.handleModelsList)
	mux.HandleFunc("POST /v1/models/download", s.handleModelsDownload)
	mux.HandleFunc("POST /v1/models/set-default", s.handleModelsSetDefault)

	mux.HandleFunc("GET /v1/doctor/report", s.handleDoctorReport)
	mux.HandleFunc("GET /v1/doctor/report/export", s.handleDoctorReportExport)

	mux.HandleFunc("POST /v1/router/plan", s.handleRouterPlan)

	mux.HandleFunc("POST /v1/approvals/action-card", s.handleApprovalsActionCard)
	mux.HandleFunc("POST /v1/approvals/issue-token", s.handleApprovalsIssueToken)

	mux.HandleFunc("POST /v1/tasks/execute", s.handleTasksExecute)
	mux.HandleFunc("GET /v1/tasks", s.handleTasksList)
	mux.HandleFunc("GET /v1/tasks/{task_id}", s.handleTasksGet)
	mux.HandleFunc("GET /v1/tasks/{task_id}/export", s.handleTasksExport)

	mux.HandleFunc("GET /v1/logs/tail", s.handleLogsTail)
	mux.HandleFunc("GET /v1/logs/search", s.handleLogsSearch)
	mux.HandleFunc("POST /v1/logs/export", s.handleLogsExport)

	return s.withAuth(mux)
}

// withAuth requires a matching "Authorization: Bearer <token>" header on
// every /v1/* request, using a constant-time comparison so the check
// doesn't leak timing information about the configured token.
func (s *Server) withAuth(next http.Handler) http.Handler {
	const prefix = "Bearer "
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, apperr.Unauthorized("Missing or malformed Authorization header"))
			return
		}
		presented := header[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.AuthToken)) != 1 {
			writeError(w, apperr.Unauthorized("Invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError translates an error into the matching JSON error body,
// defaulting to 500 for anything that isn't an *apperr.Error.
func writeError(w http.ResponseWriter, err error) {
	if ae, ok := apperr.As(err); ok {
		writeJSON(w, ae.Status, map[string]string{"error": ae.Message})
		return
	}
	log.Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return apperr.BadRequest("Invalid JSON body: %v", err)
	}
	return nil
}

// Deps ties the components Execute needs directly to the server's stores.
func (s *Server) executorDeps() executor.Deps {
	return executor.Deps{
		Approvals: s.Approvals,
		Traces:    s.Traces,
		ConfigAllowedRoots: func() []string {
			return s.Config.Snapshot().AllowedFolders
		},
		ShellEnabled: func() bool {
			return s.Config.Snapshot().Shell.Enabled
		},
	}
}
