package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-prison-stats/internal/model"
	"go-prison-stats/internal/store"

	"github.com/google/go-cmp/cmp"
)

func reportSpec(t *testing.T) model.ReportSpec {
	t.Helper()
	spec := model.DefaultReportSpec()
	spec.Source = model.Source{URL: writeFile(t, t.TempDir(), "Caste.csv", prisonCSV)}
	spec.Display.Mode = "file"
	return spec
}

func useStore(t *testing.T) {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "reports.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })
}

func stageNames(m model.RunMetrics) []string {
	var names []string
	for _, s := range m.Stages {
		names = append(names, s.Stage)
	}
	return names
}

func TestRunWithoutRender(t *testing.T) {
	spec := reportSpec(t)
	spec.SkipRender = true
	var out bytes.Buffer

	report, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Loaded != 5 || report.Filtered != 4 {
		t.Errorf("loaded %d filtered %d, want 5 and 4", report.Loaded, report.Filtered)
	}
	if diff := cmp.Diff(prisonAggregate(), report.Aggregate); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if report.Artifact != nil {
		t.Errorf("chart rendered although skipped")
	}
	if report.Metrics.Status != model.StatusCompleted || report.Metrics.Coerced != 1 {
		t.Errorf("metrics = %+v", report.Metrics)
	}
	if diff := cmp.Diff([]string{"load", "filter", "aggregate"}, stageNames(report.Metrics)); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("preview has %d lines, want header + 3 rows:\n%s", len(lines), out.String())
	}
	if diff := cmp.Diff([]string{"0", "2012", "Male", "1", "14", "15", "1"}, strings.Fields(lines[1])); diff != "" {
		t.Errorf("first preview row mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPreviewLimit(t *testing.T) {
	spec := reportSpec(t)
	spec.SkipRender = true
	spec.Preview = 1
	var out bytes.Buffer

	if _, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("preview has %d lines, want 2:\n%s", n, out.String())
	}
}

func TestRunRendersChart(t *testing.T) {
	spec := reportSpec(t)
	outDir := t.TempDir()

	report, err := Run(context.Background(), "run-1", spec, RunOptions{
		Out:       &bytes.Buffer{},
		OutputDir: outDir,
		Display:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	art := report.Artifact
	if art == nil {
		t.Fatal("no chart artifact")
	}
	if filepath.Dir(art.Path) != filepath.Join(outDir, "run-1") {
		t.Errorf("chart written to %s", art.Path)
	}
	paths := []string{art.Path}
	for _, f := range art.Frames {
		paths = append(paths, f.Path)
	}
	if len(art.Frames) != 2 {
		t.Errorf("got %d frames, want one per year", len(art.Frames))
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
	if len(art.Warnings) == 0 {
		t.Errorf("expected warnings for columns the aggregate lacks")
	}
	for _, w := range art.Warnings {
		if strings.Contains(w, "err_plus") || strings.Contains(w, "err_minus") {
			t.Errorf("error bars did not reach the chart: %s", w)
		}
	}
	if diff := cmp.Diff(prisonAggregate(), report.Aggregate); diff != "" {
		t.Errorf("chart transformations leaked into the aggregate (-want +got):\n%s", diff)
	}

	want := []string{"load", "filter", "aggregate", "render", "display"}
	if diff := cmp.Diff(want, stageNames(report.Metrics)); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWithoutChartTransformations(t *testing.T) {
	spec := reportSpec(t)
	spec.ChartTransformations = nil

	report, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, w := range report.Artifact.Warnings {
		if strings.Contains(w, "err_plus") {
			found = true
		}
	}
	if !found {
		t.Errorf("no warning for the absent error column: %v", report.Artifact.Warnings)
	}
}

func TestRunUnknownChartTransformation(t *testing.T) {
	spec := reportSpec(t)
	spec.ChartTransformations = []string{"smooth"}

	if _, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunEmptyFilterSkipsRender(t *testing.T) {
	spec := reportSpec(t)
	spec.Filter.Equals = "Goa"

	report, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Aggregate.Len() != 0 || len(report.Aggregate.Columns) != 6 {
		t.Errorf("aggregate = %+v", report.Aggregate)
	}
	if report.Artifact != nil {
		t.Errorf("rendered a chart for an empty table")
	}
}

func TestRunMissingFile(t *testing.T) {
	spec := reportSpec(t)
	spec.Source.URL = filepath.Join(t.TempDir(), "missing.csv")

	report, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}})
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
	m := report.Metrics
	if m.Status != model.StatusFailed {
		t.Errorf("status = %s", m.Status)
	}
	if len(m.Errors) != 1 || m.Errors[0].Stage != model.StageLoad || m.Errors[0].ErrorType != "file_not_found" {
		t.Errorf("errors = %+v", m.Errors)
	}
	if len(m.Stages) != 1 || m.Stages[0].Status != model.StatusFailed {
		t.Errorf("stages = %+v", m.Stages)
	}
}

func TestRunSchemaError(t *testing.T) {
	spec := reportSpec(t)
	spec.Aggregation.Sum = []string{"convicts", "escapes"}
	spec.SkipRender = true

	_, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}})
	var se *SchemaError
	if !errors.As(err, &se) || se.Stage != model.StageAggregate {
		t.Fatalf("err = %v, want aggregate SchemaError", err)
	}
}

func TestRunInvalidSpec(t *testing.T) {
	spec := reportSpec(t)
	spec.NumericPolicy = "guess"

	if _, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunExports(t *testing.T) {
	spec := reportSpec(t)
	spec.SkipRender = true
	dir := t.TempDir()
	spec.Export = &model.Export{
		Files: []string{filepath.Join(dir, "agg.csv"), filepath.Join(dir, "agg.bin")},
	}

	report, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Exports) != 2 || !report.Exports[0].Success || report.Exports[1].Success {
		t.Errorf("exports = %+v", report.Exports)
	}
	if len(report.Metrics.Errors) != 1 || report.Metrics.Errors[0].Stage != model.StageExport {
		t.Errorf("errors = %+v", report.Metrics.Errors)
	}
}

func TestRunPersistsToStore(t *testing.T) {
	useStore(t)
	spec := reportSpec(t)
	spec.SkipRender = true
	if err := store.SaveReport("run-1", spec); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	if _, err := Run(context.Background(), "run-1", spec, RunOptions{Out: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, err := store.GetReport("run-1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored["status"] != model.StatusCompleted {
		t.Errorf("status = %v", stored["status"])
	}

	rows, err := store.GetAggregateRows("run-1")
	if err != nil {
		t.Fatalf("GetAggregateRows: %v", err)
	}
	if diff := cmp.Diff(prisonAggregate(), rows); diff != "" {
		t.Errorf("stored rows mismatch (-want +got):\n%s", diff)
	}

	progress, err := store.GetStageProgress("run-1")
	if err != nil {
		t.Fatalf("GetStageProgress: %v", err)
	}
	if len(progress) != 3 {
		t.Errorf("got %d stages, want 3", len(progress))
	}
}

func TestRerunReport(t *testing.T) {
	useStore(t)
	spec := reportSpec(t)
	spec.SkipRender = true
	if err := store.SaveReport("run-1", spec); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := store.SaveReportError("run-1", model.StageLoad, "internal", errors.New("disk hiccup")); err != nil {
		t.Fatal(err)
	}

	report, err := RerunReport(context.Background(), "run-1", RunOptions{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("RerunReport: %v", err)
	}
	if report.Aggregate.Len() != 3 {
		t.Errorf("got %d rows", report.Aggregate.Len())
	}

	errs, err := store.GetReportErrors("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 0 {
		t.Errorf("old errors kept: %+v", errs)
	}
}

func TestRerunUnknownReport(t *testing.T) {
	useStore(t)
	if _, err := RerunReport(context.Background(), "nope", RunOptions{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPrintPreview(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintPreview(&buf, prisonAggregate().Head(2)); err != nil {
		t.Fatalf("PrintPreview: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if diff := cmp.Diff(prisonAggregate().Columns, strings.Fields(lines[0])); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2012", "Female", "0", "2", "3", "0"}, strings.Fields(lines[2])); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	// right aligned: every line has the same width
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Errorf("lines not aligned:\n%s", buf.String())
	}
}
