package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-prison-stats/internal/model"
	"go-prison-stats/internal/pipeline"
	"go-prison-stats/internal/store"
	"go-prison-stats/pkg/utils"

	"github.com/google/uuid"
)

const reportsPrefix = "/api/v1/reports/"

// OutputDir is where API runs write their charts
var OutputDir = "output"

type activeRun struct {
	tracker *pipeline.RunTracker
	cancel  context.CancelFunc
	done    chan struct{} // closed when the run's goroutine returns
}

var (
	activeMu sync.Mutex
	active   = map[string]*activeRun{}
)

// startRun runs spec in the background under reportID. fn lets the rerun
// endpoint reuse the bookkeeping. A run already active for reportID is
// cancelled and fn starts only after it has returned.
func startRun(reportID string, fn func(ctx context.Context, opts pipeline.RunOptions) error) {
	ctx, cancel := context.WithCancel(context.Background())
	run := &activeRun{tracker: pipeline.NewRunTracker(reportID), cancel: cancel, done: make(chan struct{})}

	activeMu.Lock()
	prev := active[reportID]
	if prev != nil {
		prev.cancel()
	}
	active[reportID] = run
	activeMu.Unlock()

	go func() {
		defer close(run.done)
		defer cancel()
		defer func() {
			activeMu.Lock()
			if active[reportID] == run {
				delete(active, reportID)
			}
			activeMu.Unlock()
		}()

		if prev != nil {
			<-prev.done
		}
		if ctx.Err() != nil {
			return
		}

		err := fn(ctx, pipeline.RunOptions{
			Out:       io.Discard,
			OutputDir: OutputDir,
			Tracker:   run.tracker,
		})
		if err != nil {
			log.Printf("❌ Report %s failed: %v", reportID, err)
		}
	}()
}

// stopRun cancels the active run of reportID and waits until it has returned
func stopRun(reportID string) bool {
	activeMu.Lock()
	run, running := active[reportID]
	activeMu.Unlock()
	if !running {
		return false
	}
	run.cancel()
	<-run.done
	return true
}

func activeTracker(reportID string) *pipeline.RunTracker {
	activeMu.Lock()
	defer activeMu.Unlock()
	if run, ok := active[reportID]; ok {
		return run.tracker
	}
	return nil
}

// reportID extracts the id from /api/v1/reports/{id}<suffix>
func reportID(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	if !strings.HasPrefix(path, reportsPrefix) || !strings.HasSuffix(path, suffix) ||
		len(path) < len(reportsPrefix)+len(suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	id := path[len(reportsPrefix) : len(path)-len(suffix)]
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Report ID is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func notFoundOr500(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Failed to retrieve "+what, http.StatusInternalServerError)
}

// CreateReport creates and starts a new report run
// @Summary Create a new report
// @Description Start a report run. The body is optional; fields it sets override the default Maharashtra report.
// @Tags reports
// @Accept json
// @Produce json
// @Param report body model.ReportSpec false "Report configuration"
// @Success 202 {object} map[string]interface{} "Report created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports [post]
func CreateReport(w http.ResponseWriter, r *http.Request) {
	spec := model.DefaultReportSpec()
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 1. Validate payload
	if err := pipeline.ValidateSpec(spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 2. Generate report ID and save it
	id := uuid.New().String()
	if err := store.SaveReport(id, spec); err != nil {
		http.Error(w, "Failed to save report", http.StatusInternalServerError)
		return
	}

	// 3. Run asynchronously
	startRun(id, func(ctx context.Context, opts pipeline.RunOptions) error {
		_, err := pipeline.Run(ctx, id, spec, opts)
		return err
	})

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Report created successfully!",
		"reportID":  id,
		"status":    model.StatusPending,
		"createdAt": time.Now().UTC(),
	})
}

// ListReports retrieves all reports
// @Summary List all reports
// @Description Get a list of all reports with their current status
// @Tags reports
// @Produce json
// @Success 200 {array} map[string]interface{} "List of reports"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports [get]
func ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := store.ListReports()
	if err != nil {
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetReport retrieves a specific report
// @Summary Get report
// @Description Retrieve the configuration and status of a report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report details"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id} [get]
func GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "")
	if !ok {
		return
	}

	report, err := store.GetReport(id)
	if err != nil {
		notFoundOr500(w, err, "report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetReportResults retrieves the aggregated table of a report
// @Summary Get report results
// @Description Retrieve the (year, gender) sums computed by a report run
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Aggregated rows"
// @Failure 404 {object} map[string]interface{} "No results stored"
// @Router /reports/{id}/results [get]
func GetReportResults(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/results")
	if !ok {
		return
	}

	table, err := store.GetAggregateRows(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No results for report", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to retrieve results", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": id,
		"columns":   table.Columns,
		"rows":      table.Rows,
		"count":     table.Len(),
	})
}

// GetReportErrors retrieves errors of a report
// @Summary Get report errors
// @Description Retrieve all errors recorded while running a report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports/{id}/errors [get]
func GetReportErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/errors")
	if !ok {
		return
	}

	errs, err := store.GetReportErrors(id)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": id,
		"errors":    errs,
		"count":     len(errs),
	})
}

// GetReportProgress retrieves stage progress of a report
// @Summary Get report progress
// @Description Live metrics while a run is in flight, stored stage progress afterwards
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Stage progress"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports/{id}/progress [get]
func GetReportProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/progress")
	if !ok {
		return
	}

	if tracker := activeTracker(id); tracker != nil {
		m := tracker.GetMetrics()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"report_id": id,
			"status":    m.Status,
			"progress":  m.Stages,
			"count":     len(m.Stages),
			"live":      true,
		})
		return
	}

	progress, err := store.GetStageProgress(id)
	if err != nil {
		http.Error(w, "Failed to retrieve progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": id,
		"progress":  progress,
		"count":     len(progress),
		"live":      false,
	})
}

// GetReportChart serves the rendered chart of a report
// @Summary Get report chart
// @Description Download the combined chart image written by a report run
// @Tags reports
// @Produce image/png
// @Param id path string true "Report ID"
// @Success 200 {file} file "Chart image"
// @Failure 404 {object} map[string]interface{} "Chart not rendered"
// @Router /reports/{id}/chart [get]
func GetReportChart(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/chart")
	if !ok {
		return
	}

	path, err := store.GetChartPath(id)
	if err != nil {
		notFoundOr500(w, err, "chart")
		return
	}
	if path == "" {
		http.Error(w, "Chart not rendered", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "Chart file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", utils.ContentType(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// RerunReport runs a report again with its stored configuration
// @Summary Rerun report
// @Description Clear stored results of a report and run it again
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 202 {object} map[string]interface{} "Rerun started"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id}/rerun [post]
func RerunReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/rerun")
	if !ok {
		return
	}

	if _, err := store.GetReport(id); err != nil {
		notFoundOr500(w, err, "report")
		return
	}

	startRun(id, func(ctx context.Context, opts pipeline.RunOptions) error {
		_, err := pipeline.RerunReport(ctx, id, opts)
		return err
	})

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Rerun initiated",
		"report_id": id,
		"status":    model.StatusPending,
	})
}

// CancelReport stops a running report
// @Summary Cancel report
// @Description Cancel a report run that is still in flight
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report cancelled"
// @Failure 409 {object} map[string]interface{} "Report is not running"
// @Router /reports/{id}/cancel [patch]
func CancelReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "/cancel")
	if !ok {
		return
	}

	if !stopRun(id) {
		http.Error(w, "Report is not running", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Report cancelled",
		"report_id": id,
	})
}

// DeleteReport deletes a report and its chart files
// @Summary Delete report
// @Description Delete a report, its stored rows and its output directory
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Report deleted"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id} [delete]
func DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r, "")
	if !ok {
		return
	}

	if stopRun(id) {
		log.Printf("🛑 Stopped running report %s before deleting it", id)
	}

	if err := store.DeleteReport(id); err != nil {
		notFoundOr500(w, err, "report")
		return
	}

	runDir := utils.NewOutputManager(OutputDir).RunDir(id)
	if err := os.RemoveAll(runDir); err != nil {
		log.Printf("⚠️ Failed to delete %s: %v", runDir, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Report deleted successfully",
		"report_id": id,
	})
}
