package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/approval"
	"github.com/rcourtman/liteclaw/internal/config"
	"github.com/rcourtman/liteclaw/internal/models"
	"github.com/rcourtman/liteclaw/internal/planstore"
	"github.com/rcourtman/liteclaw/internal/tracestore"
)

func newTestServer(t *testing.T) (http.Handler, *Server) {
	t.Helper()
	dataDir := t.TempDir()

	cfgStore, err := config.NewStore(dataDir)
	require.NoError(t, err)
	t.Cleanup(cfgStore.Close)

	modelsStore, err := models.NewStore(dataDir)
	require.NoError(t, err)

	traces, err := tracestore.NewStore(dataDir)
	require.NoError(t, err)

	s := &Server{
		AuthToken: "secret-token",
		Version:   "test",
		DataDir:   dataDir,
		LogPath:   dataDir + "/logs/backend.log",
		Config:    cfgStore,
		Models:    modelsStore,
		Approvals: approval.NewStore(),
		Traces:    traces,
		Plans:     planstore.NewStore(),
	}
	return NewServer(s), s
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRequiresAuth(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, "GET", "/v1/health", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthWithValidToken(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, "GET", "/v1/health", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouterPlanThenActionCardThenExecute(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, "POST", "/v1/router/plan", "secret-token", map[string]any{
		"prompt": "just chatting, nothing special",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var plan map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	planID := plan["plan_id"].(string)

	rec = doRequest(t, handler, "POST", "/v1/approvals/action-card", "secret-token", map[string]any{
		"plan_id": planID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, "POST", "/v1/tasks/execute", "secret-token", map[string]any{
		"plan": plan,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var trace map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trace))
	require.Equal(t, "completed", trace["status"])
}

func TestApprovalsActionCardUnknownPlanReturns404(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, "POST", "/v1/approvals/action-card", "secret-token", map[string]any{
		"plan_id": "does-not-exist",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModelsDownloadAndList(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, "POST", "/v1/models/download", "secret-token", map[string]any{
		"model_id":     "m1",
		"display_name": "Model One",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, "GET", "/v1/models", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "m1")
}

func TestTasksGetUnknownReturns404(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, "GET", "/v1/tasks/missing", "secret-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDoctorReportReturnsSevenChecks(t *testing.T) {
	handler, _ := newTestServer(t)
	rec := doRequest(t, handler, "GET", "/v1/doctor/report", "secret-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	checks := report["checks"].([]any)
	require.Len(t, checks, 7)
}
