package api

import (
	"net/http"
	"time"

	"github.com/rcourtman/liteclaw/internal/apperr"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.Version})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config.Snapshot())
}

func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Reload(); err != nil {
		writeError(w, apperr.Internal("Could not reload config: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, s.Config.Snapshot())
}

func (s *Server) handleModelsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Models.Snapshot())
}

type modelsDownloadRequest struct {
	ModelID     string `json:"model_id"`
	DisplayName string `json:"display_name"`
	LocalPath   string `json:"local_path"`
}

func (s *Server) handleModelsDownload(w http.ResponseWriter, r *http.Request) {
	var req modelsDownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ModelID == "" {
		writeError(w, apperr.BadRequest("model_id is required"))
		return
	}
	if _, err := s.Models.Register(req.ModelID, req.DisplayName, req.LocalPath); err != nil {
		writeError(w, apperr.Internal("Could not register model: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, s.Models.Snapshot())
}

type modelsSetDefaultRequest struct {
	ModelID string `json:"model_id"`
}

func (s *Server) handleModelsSetDefault(w http.ResponseWriter, r *http.Request) {
	var req modelsSetDefaultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	found, err := s.Models.SetDefault(req.ModelID)
	if err != nil {
		writeError(w, apperr.Internal("Could not set default model: %v", err))
		return
	}
	if !found {
		writeError(w, apperr.NotFound("Model not installed: %s", req.ModelID))
		return
	}
	writeJSON(w, http.StatusOK, s.Models.Snapshot())
}
