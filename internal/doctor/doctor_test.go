package doctor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

func TestGenerateReportAllSevenChecksPresent(t *testing.T) {
	cfg := planmodel.AppConfig{AllowedFolders: []string{"/tmp"}}
	models := planmodel.ModelsState{}

	report := GenerateReport(cfg, models, t.TempDir())
	require.Len(t, report.Checks, 7)

	names := map[string]bool{}
	for _, c := range report.Checks {
		names[c.Name] = true
	}
	for _, want := range []string{"cpu", "ram", "disk", "model_installed", "model_loadable", "backend_health", "permissions_config"} {
		require.True(t, names[want], "missing check: %s", want)
	}
}

func TestGenerateReportWarnsOnEmptyAllowedFolders(t *testing.T) {
	report := GenerateReport(planmodel.AppConfig{}, planmodel.ModelsState{}, t.TempDir())
	require.NotEqual(t, "ok", report.OverallStatus)

	for _, c := range report.Checks {
		if c.Name == "permissions_config" {
			require.Equal(t, "warn", c.Status)
		}
	}
}

func TestGenerateReportWarnsWithoutDefaultModel(t *testing.T) {
	report := GenerateReport(planmodel.AppConfig{AllowedFolders: []string{"/tmp"}}, planmodel.ModelsState{}, t.TempDir())

	for _, c := range report.Checks {
		if c.Name == "model_installed" {
			require.Equal(t, "warn", c.Status)
		}
	}
}

func TestExportMarkdownIncludesOverallStatus(t *testing.T) {
	report := GenerateReport(planmodel.AppConfig{AllowedFolders: []string{"/tmp"}}, planmodel.ModelsState{}, t.TempDir())
	md := ExportMarkdown(report)
	require.Contains(t, md, "Doctor report")
	require.Contains(t, md, "Overall status")
}
