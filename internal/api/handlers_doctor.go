package api

import (
	"net/http"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/doctor"
)

func (s *Server) handleDoctorReport(w http.ResponseWriter, r *http.Request) {
	report := doctor.GenerateReport(s.Config.Snapshot(), s.Models.Snapshot(), s.DataDir)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDoctorReportExport(w http.ResponseWriter, r *http.Request) {
	report := doctor.GenerateReport(s.Config.Snapshot(), s.Models.Snapshot(), s.DataDir)

	switch r.URL.Query().Get("format") {
	case "", "md":
		w.Header().Set("Content-Type", "text/markdown")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doctor.ExportMarkdown(report)))
	case "json":
		writeJSON(w, http.StatusOK, report)
	default:
		writeError(w, apperr.BadRequest("Unsupported export format"))
	}
}
