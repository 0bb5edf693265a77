package api

import (
	"net/http"
	"strconv"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/logs"
)

func (s *Server) handleLogsTail(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("lines"))
	if n == 0 {
		n = 200
	}
	lines, err := logs.Tail(s.LogPath, n)
	if err != nil {
		writeError(w, apperr.Internal("Could not read log file: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *Server) handleLogsSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 100
	}
	matches, err := logs.Search(s.LogPath, q, limit)
	if err != nil {
		writeError(w, apperr.Internal("Could not read log file: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": matches})
}

type logsExportRequest struct {
	RedactPaths bool   `json:"redact_paths"`
	Format      string `json:"format"`
}

func (s *Server) handleLogsExport(w http.ResponseWriter, r *http.Request) {
	var req logsExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var dataDir string
	var allowedFolders []string
	if req.RedactPaths {
		dataDir = s.DataDir
		allowedFolders = s.Config.Snapshot().AllowedFolders
	}

	format := req.Format
	if format == "" {
		format = "txt"
	}
	if format == "txt" {
		format = "text"
	}
	if format != "text" && format != "jsonl" {
		writeError(w, apperr.BadRequest("format must be txt or jsonl"))
		return
	}

	out, err := logs.Export(s.LogPath, dataDir, allowedFolders, format)
	if err != nil {
		writeError(w, apperr.Internal("Could not export logs: %v", err))
		return
	}

	contentType := "text/plain"
	if format == "jsonl" {
		contentType = "application/x-ndjson"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
