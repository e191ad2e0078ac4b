package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"go-prison-stats/internal/chart"
	"go-prison-stats/internal/model"
	"go-prison-stats/internal/store"
	"go-prison-stats/pkg/utils"
)

// RunOptions carries what differs between the CLI and the API
type RunOptions struct {
	Out       io.Writer   // preview destination; os.Stdout when nil
	OutputDir string      // base directory; charts go to OutputDir/<runID>
	Tracker   *RunTracker // created by the caller to read progress while running
	Display   bool        // show the chart after rendering
}

// Report is the outcome of one run
type Report struct {
	RunID     string               `json:"run_id"`
	Loaded    int                  `json:"loaded_rows"`
	Filtered  int                  `json:"filtered_rows"`
	Aggregate *model.Table         `json:"aggregate"`
	Stats     *AggregateStats      `json:"aggregate_stats"`
	Artifact  *chart.Artifact      `json:"chart,omitempty"`
	Exports   []model.ExportResult `json:"exports,omitempty"`
	Metrics   model.RunMetrics     `json:"metrics"`
}

// ------------------- Report Runner -------------------

// Run executes load, filter, transform, aggregate, preview, render, export
// and display for spec. Chart transformations run on the aggregate inside the
// render stage, so the preview, store and exports keep the plain sums. Any stage error ends the run; it is recorded on the
// tracker (and the store when enabled) and returned.
func Run(ctx context.Context, runID string, spec model.ReportSpec, opts RunOptions) (report *Report, err error) {
	start := time.Now()
	log.Printf("🚀 Starting report run: %s", runID)

	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewRunTracker(runID)
	} else {
		tracker.begin()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if store.Enabled() {
		if e := store.UpdateReportStatus(runID, model.StatusRunning); e != nil {
			log.Printf("⚠️ Failed to update report status: %v", e)
		}
	}

	report = &Report{RunID: runID}
	defer func() {
		if err != nil {
			tracker.Fail()
			log.Printf("❌ Report run %s failed after %v: %v", runID, time.Since(start), err)
		} else {
			tracker.Complete()
			log.Printf("🏁 Report run %s completed in %v", runID, time.Since(start))
		}
		report.Metrics = tracker.GetMetrics()
	}()

	if err = ValidateSpec(spec); err != nil {
		tracker.RecordError(model.StageLoad, err)
		return report, err
	}
	if spec.Timeout != "" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, utils.ParseDuration(spec.Timeout))
		defer cancel()
	}

	// --- LOAD ---
	table, err := runStage(tracker, model.StageLoad, 0, func() (*model.Table, error) {
		return LoadTable(ctx, spec.Source)
	})
	if err != nil {
		return report, err
	}
	report.Loaded = table.Len()

	// --- FILTER ---
	if spec.Filter != nil {
		in := table
		table, err = runStage(tracker, model.StageFilter, in.Len(), func() (*model.Table, error) {
			return FilterEquals(in, spec.Filter.Column, spec.Filter.Equals)
		})
		if err != nil {
			return report, err
		}
	}
	report.Filtered = table.Len()

	// --- TRANSFORM ---
	if len(spec.Transformations) > 0 {
		in := table
		table, err = runStage(tracker, model.StageTransform, in.Len(), func() (*model.Table, error) {
			return Transform(in, spec.Transformations)
		})
		if err != nil {
			return report, err
		}
	}

	// --- AGGREGATE ---
	in := table
	report.Aggregate, err = runStage(tracker, model.StageAggregate, in.Len(), func() (*model.Table, error) {
		agg, stats, err := GroupSum(in, spec.Aggregation.GroupBy, spec.Aggregation.Sum, spec.NumericPolicy)
		if err == nil {
			report.Stats = stats
			tracker.AddCoerced(stats.Coerced)
		}
		return agg, err
	})
	if err != nil {
		return report, err
	}

	if spec.Preview > 0 {
		if err = PrintPreview(out, report.Aggregate.Head(spec.Preview)); err != nil {
			return report, fmt.Errorf("failed to print preview: %w", err)
		}
	}
	if store.Enabled() {
		if _, e := store.SaveAggregateRows(runID, report.Aggregate); e != nil {
			log.Printf("⚠️ Failed to persist aggregate rows: %v", e)
		}
	}

	if err = ctx.Err(); err != nil {
		return report, err
	}

	// --- RENDER ---
	if !spec.SkipRender {
		dir, e := utils.NewOutputManager(opts.OutputDir).CreateRunOutputDir(runID)
		if e != nil {
			err = e
			tracker.RecordError(model.StageRender, err)
			return report, err
		}

		tracker.StartStage(model.StageRender, report.Aggregate.Len())
		data := report.Aggregate
		if len(spec.ChartTransformations) > 0 {
			if data, err = Transform(data, spec.ChartTransformations); err != nil {
				tracker.RecordError(model.StageRender, err)
				return report, err
			}
		}
		report.Artifact, err = chart.Render(data, spec.Chart, chart.Options{
			OutputDir: dir,
			Format:    spec.Display.Format,
		})
		switch {
		case errors.Is(err, chart.ErrNoData):
			log.Printf("⚠️ Nothing to render: %v", err)
			report.Artifact, err = nil, nil
			tracker.EndStage(model.StageRender, 0)
		case err != nil:
			tracker.RecordError(model.StageRender, err)
			return report, err
		default:
			tracker.EndStage(model.StageRender, 1+len(report.Artifact.Frames))
			if store.Enabled() {
				if e := store.SaveChartPath(runID, report.Artifact.Path); e != nil {
					log.Printf("⚠️ Failed to persist chart path: %v", e)
				}
			}
		}
	}

	// --- EXPORT ---
	if spec.Export != nil {
		tracker.StartStage(model.StageExport, report.Aggregate.Len())
		report.Exports = ExportTable(ctx, report.Aggregate, spec.Export, runID)
		exported := 0
		for _, r := range report.Exports {
			if r.Success {
				exported++
			} else {
				tracker.RecordError(model.StageExport, fmt.Errorf("export to %s: %s", r.Path, r.Error))
			}
		}
		tracker.EndStage(model.StageExport, exported)
	}

	if err = ctx.Err(); err != nil {
		return report, err
	}

	// --- DISPLAY ---
	if opts.Display && report.Artifact != nil {
		tracker.StartStage(model.StageDisplay, 1+len(report.Artifact.Frames))
		if err = chart.Display(ctx, report.Artifact, spec.Display); err != nil {
			tracker.RecordError(model.StageDisplay, err)
			return report, err
		}
		tracker.EndStage(model.StageDisplay, 1+len(report.Artifact.Frames))
	}

	return report, nil
}

// runStage wraps a table stage with tracker bookkeeping
func runStage(tracker *RunTracker, stage string, rowsIn int, fn func() (*model.Table, error)) (*model.Table, error) {
	tracker.StartStage(stage, rowsIn)
	out, err := fn()
	if err != nil {
		tracker.RecordError(stage, err)
		return nil, err
	}
	tracker.EndStage(stage, out.Len())
	return out, nil
}

// PrintPreview writes the table with a leading row index, right aligned.
func PrintPreview(w io.Writer, table *model.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "\t")
	for _, c := range table.Columns {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)

	for i, row := range table.Rows {
		fmt.Fprintf(tw, "%d\t", i)
		for _, c := range table.Columns {
			fmt.Fprintf(tw, "%s\t", utils.FormatValue(row[c]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
