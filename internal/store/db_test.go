package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go-prison-stats/internal/model"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "reports.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func aggregateTable() *model.Table {
	table := model.NewTable([]string{"year", "gender", "convicts", "ratio"})
	table.Rows = append(table.Rows,
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(15), "ratio": 0.25},
		model.Row{"year": int64(2012), "gender": "Female", "convicts": int64(3), "ratio": nil},
	)
	return table
}

func TestReportLifecycle(t *testing.T) {
	openTestDB(t)
	spec := model.DefaultReportSpec()

	if err := SaveReport("r1", spec); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := UpdateReportStatus("r1", model.StatusRunning); err != nil {
		t.Fatalf("UpdateReportStatus: %v", err)
	}
	if err := SaveChartPath("r1", "output/r1/chart.png"); err != nil {
		t.Fatalf("SaveChartPath: %v", err)
	}

	report, err := GetReport("r1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report["status"] != model.StatusRunning {
		t.Errorf("status = %v", report["status"])
	}
	got := report["spec"].(model.ReportSpec)
	if got.Source != spec.Source || got.Filter.Equals != "Maharashtra" {
		t.Errorf("spec = %+v", got)
	}

	path, err := GetChartPath("r1")
	if err != nil || path != "output/r1/chart.png" {
		t.Errorf("chart path = %q, %v", path, err)
	}

	reports, err := ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 || reports[0]["id"] != "r1" {
		t.Errorf("reports = %v", reports)
	}
}

func TestGetReportNotFound(t *testing.T) {
	openTestDB(t)

	if _, err := GetReport("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport: err = %v", err)
	}
	if _, err := GetChartPath("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChartPath: err = %v", err)
	}
	if _, err := GetAggregateRows("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAggregateRows: err = %v", err)
	}
	if err := DeleteReport("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteReport: err = %v", err)
	}
}

func TestErrorsAndProgress(t *testing.T) {
	openTestDB(t)
	if err := SaveReport("r1", model.DefaultReportSpec()); err != nil {
		t.Fatal(err)
	}

	if err := SaveReportError("r1", model.StageLoad, "file_not_found", errors.New("file not found: Caste.csv")); err != nil {
		t.Fatalf("SaveReportError: %v", err)
	}
	if err := SaveReportError("r1", model.StageLoad, "internal", nil); err != nil {
		t.Fatalf("SaveReportError(nil): %v", err)
	}
	errs, err := GetReportErrors("r1")
	if err != nil {
		t.Fatalf("GetReportErrors: %v", err)
	}
	if len(errs) != 1 || errs[0].ErrorType != "file_not_found" || errs[0].Stage != model.StageLoad {
		t.Errorf("errors = %+v", errs)
	}

	start := time.Now().Add(-time.Second)
	end := start.Add(500 * time.Millisecond)
	if err := SaveStageProgress("r1", model.StageMetrics{Stage: model.StageLoad, Status: model.StatusRunning, StartTime: start}); err != nil {
		t.Fatalf("SaveStageProgress: %v", err)
	}
	if err := SaveStageProgress("r1", model.StageMetrics{Stage: model.StageLoad, Status: model.StatusCompleted, StartTime: start, EndTime: &end, RowsOut: 42}); err != nil {
		t.Fatalf("SaveStageProgress update: %v", err)
	}

	progress, err := GetStageProgress("r1")
	if err != nil {
		t.Fatalf("GetStageProgress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("got %d stages, want 1", len(progress))
	}
	p := progress[0]
	if p.Status != model.StatusCompleted || p.RowsOut != 42 || p.EndTime == nil || p.Duration != 500*time.Millisecond {
		t.Errorf("progress = %+v", p)
	}
}

func TestAggregateRowsRoundTrip(t *testing.T) {
	openTestDB(t)

	n, err := SaveAggregateRows("r1", aggregateTable())
	if err != nil || n != 2 {
		t.Fatalf("SaveAggregateRows = %d, %v", n, err)
	}
	// saving again replaces the previous rows
	if _, err := SaveAggregateRows("r1", aggregateTable()); err != nil {
		t.Fatalf("SaveAggregateRows again: %v", err)
	}

	got, err := GetAggregateRows("r1")
	if err != nil {
		t.Fatalf("GetAggregateRows: %v", err)
	}
	if diff := cmp.Diff(aggregateTable(), got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestClearAndDeleteReport(t *testing.T) {
	openTestDB(t)
	if err := SaveReport("r1", model.DefaultReportSpec()); err != nil {
		t.Fatal(err)
	}
	SaveChartPath("r1", "chart.png")
	SaveReportError("r1", model.StageLoad, "internal", errors.New("boom"))
	SaveAggregateRows("r1", aggregateTable())

	if err := ClearReport("r1"); err != nil {
		t.Fatalf("ClearReport: %v", err)
	}
	if errs, _ := GetReportErrors("r1"); len(errs) != 0 {
		t.Errorf("errors kept: %v", errs)
	}
	if _, err := GetAggregateRows("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rows kept: %v", err)
	}
	if path, _ := GetChartPath("r1"); path != "" {
		t.Errorf("chart path kept: %q", path)
	}
	if report, _ := GetReport("r1"); report["status"] != model.StatusPending {
		t.Errorf("status = %v", report["status"])
	}

	if err := DeleteReport("r1"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := GetReport("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("report kept: %v", err)
	}
}

func TestExportAggregateSeparateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")

	n, err := ExportAggregate(path, "r1", aggregateTable())
	if err != nil || n != 2 {
		t.Fatalf("ExportAggregate = %d, %v", n, err)
	}
	if Enabled() {
		t.Error("exporting opened the package database")
	}

	got, err := ReadExportedAggregate(path, "r1")
	if err != nil {
		t.Fatalf("ReadExportedAggregate: %v", err)
	}
	if diff := cmp.Diff(aggregateTable(), got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}
