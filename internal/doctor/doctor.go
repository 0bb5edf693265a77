// Package doctor runs a fixed set of independent environment probes and
// combines them into a DoctorReport, the way a health/diagnostics endpoint
// surfaces actionable configuration problems to an operator.
package doctor

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

const (
	statusOK   = "ok"
	statusWarn = "warn"
	statusFail = "fail"
)

func worse(a, b string) string {
	rank := map[string]int{statusOK: 0, statusWarn: 1, statusFail: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// GenerateReport runs the seven checks concurrently, one goroutine per
// check writing into its own fixed slot, then joins them in declared order
// regardless of completion order.
func GenerateReport(cfg planmodel.AppConfig, models planmodel.ModelsState, dataDir string) planmodel.DoctorReport {
	var checks [7]planmodel.DoctorCheck
	var g errgroup.Group

	g.Go(func() error { checks[0] = checkCPU(); return nil })
	g.Go(func() error { checks[1] = checkRAM(); return nil })
	g.Go(func() error { checks[2] = checkDisk(dataDir); return nil })
	g.Go(func() error { checks[3] = checkModelInstalled(models); return nil })
	g.Go(func() error { checks[4] = checkModelLoadable(models); return nil })
	g.Go(func() error { checks[5] = checkBackendHealth(); return nil })
	g.Go(func() error { checks[6] = checkPermissionsConfig(cfg); return nil })
	_ = g.Wait() // every check function is infallible; errors never occur.

	overall := statusOK
	for _, c := range checks {
		overall = worse(overall, c.Status)
	}

	return planmodel.DoctorReport{
		ReportID:      uuid.NewString(),
		GeneratedAt:   planmodel.NowTimestamp(),
		OverallStatus: overall,
		Checks:        checks[:],
		Summary:       summarize(overall, checks[:]),
	}
}

func summarize(overall string, checks []planmodel.DoctorCheck) string {
	if overall == statusOK {
		return "All checks passed."
	}
	var flagged []string
	for _, c := range checks {
		if c.Status != statusOK {
			flagged = append(flagged, c.Name)
		}
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(overall), strings.Join(flagged, ", "))
}

func checkCPU() planmodel.DoctorCheck {
	n := runtime.NumCPU()
	return planmodel.DoctorCheck{
		Name:    "cpu",
		Status:  statusOK,
		Details: fmt.Sprintf("%d logical CPUs available", n),
		Metrics: map[string]any{"cores": n},
	}
}

func checkRAM() planmodel.DoctorCheck {
	total, available, err := readMeminfo()
	if err != nil {
		return planmodel.DoctorCheck{
			Name:           "ram",
			Status:         statusWarn,
			Details:        "could not determine memory from /proc/meminfo",
			Recommendation: "Verify this is running on a Linux host with /proc/meminfo present.",
		}
	}
	status := statusOK
	rec := ""
	if available < 512*1024*1024 {
		status = statusWarn
		rec = "Available memory is low; large file searches or models may be slow."
	}
	return planmodel.DoctorCheck{
		Name:    "ram",
		Status:  status,
		Details: fmt.Sprintf("%d MB total, %d MB available", total/1024/1024, available/1024/1024),
		Metrics: map[string]any{"total_bytes": total, "available_bytes": available},
		Recommendation: rec,
	}
}

// readMeminfo parses /proc/meminfo's MemTotal and MemAvailable, in bytes.
func readMeminfo() (total, available int64, err error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, convErr := strconv.ParseInt(fields[1], 10, 64)
		if convErr != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			total = kb * 1024
		case "MemAvailable":
			available = kb * 1024
		}
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("MemTotal not found")
	}
	return total, available, nil
}

func checkDisk(dataDir string) planmodel.DoctorCheck {
	free, total, err := statfs(dataDir)
	if err != nil {
		return planmodel.DoctorCheck{
			Name:           "disk",
			Status:         statusWarn,
			Details:        fmt.Sprintf("could not stat data directory: %v", err),
			Recommendation: "Verify the data directory exists and is on a mounted filesystem.",
		}
	}
	status := statusOK
	rec := ""
	if free < 100*1024*1024 {
		status = statusWarn
		rec = "Free disk space is low; task traces and logs may fail to persist."
	}
	return planmodel.DoctorCheck{
		Name:    "disk",
		Status:  status,
		Details: fmt.Sprintf("%d MB free of %d MB", free/1024/1024, total/1024/1024),
		Metrics: map[string]any{"free_bytes": free, "total_bytes": total},
		Recommendation: rec,
	}
}

func checkModelInstalled(models planmodel.ModelsState) planmodel.DoctorCheck {
	if models.DefaultModelID == "" {
		return planmodel.DoctorCheck{
			Name:           "model_installed",
			Status:         statusWarn,
			Details:        "no default model is registered",
			Recommendation: "Register a model with POST /v1/models/download and set it as default.",
		}
	}
	return planmodel.DoctorCheck{
		Name:    "model_installed",
		Status:  statusOK,
		Details: fmt.Sprintf("default model %s is registered", models.DefaultModelID),
	}
}

func checkModelLoadable(models planmodel.ModelsState) planmodel.DoctorCheck {
	var entry *planmodel.ModelEntry
	for i := range models.InstalledModels {
		if models.InstalledModels[i].ModelID == models.DefaultModelID {
			entry = &models.InstalledModels[i]
			break
		}
	}
	if entry == nil {
		return planmodel.DoctorCheck{
			Name:    "model_loadable",
			Status:  statusWarn,
			Details: "no default model to check",
		}
	}
	if entry.LocalPath == "" {
		return planmodel.DoctorCheck{
			Name:           "model_loadable",
			Status:         statusWarn,
			Details:        fmt.Sprintf("model %s has no local_path (download stubbed)", entry.ModelID),
			Recommendation: "Provide a local_path when registering this model.",
		}
	}
	if _, err := os.Stat(entry.LocalPath); err != nil {
		return planmodel.DoctorCheck{
			Name:           "model_loadable",
			Status:         statusFail,
			Details:        fmt.Sprintf("local_path %s does not exist", entry.LocalPath),
			Recommendation: "Re-register the model with a valid local_path.",
		}
	}
	return planmodel.DoctorCheck{
		Name:    "model_loadable",
		Status:  statusOK,
		Details: fmt.Sprintf("%s resolves on disk", entry.LocalPath),
	}
}

func checkBackendHealth() planmodel.DoctorCheck {
	return planmodel.DoctorCheck{
		Name:    "backend_health",
		Status:  statusOK,
		Details: "backend process is responding",
		Metrics: map[string]any{"checked_at": time.Now().UTC().Format(time.RFC3339)},
	}
}

func checkPermissionsConfig(cfg planmodel.AppConfig) planmodel.DoctorCheck {
	if len(cfg.AllowedFolders) == 0 {
		return planmodel.DoctorCheck{
			Name:           "permissions_config",
			Status:         statusWarn,
			Details:        "no allowed folders are configured",
			Recommendation: "Add at least one folder to allowed_folders before routing file-search plans.",
		}
	}
	return planmodel.DoctorCheck{
		Name:    "permissions_config",
		Status:  statusOK,
		Details: fmt.Sprintf("%d allowed folder(s) configured", len(cfg.AllowedFolders)),
	}
}

// ExportMarkdown renders a DoctorReport as a human-readable markdown table,
// the format a support request would paste verbatim.
func ExportMarkdown(report planmodel.DoctorReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Doctor report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Time().Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall status: **%s**\n\n", strings.ToUpper(report.OverallStatus))
	fmt.Fprintf(&b, "%s\n\n", report.Summary)
	fmt.Fprintf(&b, "| Check | Status | Details |\n|---|---|---|\n")
	for _, c := range report.Checks {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Name, c.Status, c.Details)
	}
	return b.String()
}
