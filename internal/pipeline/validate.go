package pipeline

import (
	"fmt"
	"strings"

	"go-prison-stats/internal/model"
)

// RequireColumns checks that every name is part of the table schema.
func RequireColumns(stage string, table *model.Table, names ...string) error {
	if missing := table.MissingColumns(names...); len(missing) > 0 {
		return &SchemaError{Stage: stage, Missing: missing}
	}
	return nil
}

// ValidateSpec rejects report specs that cannot run, before any file is read.
func ValidateSpec(spec model.ReportSpec) error {
	var problems []string

	if spec.Source.URL == "" {
		problems = append(problems, "source url is required")
	}
	switch strings.ToLower(spec.Source.Type) {
	case "", "csv", "xlsx":
	default:
		problems = append(problems, fmt.Sprintf("unsupported source type %q", spec.Source.Type))
	}
	if spec.Filter != nil && spec.Filter.Column == "" {
		problems = append(problems, "filter column is required")
	}
	if len(spec.Aggregation.GroupBy) == 0 {
		problems = append(problems, "aggregation needs at least one groupBy column")
	}
	if len(spec.Aggregation.Sum) == 0 {
		problems = append(problems, "aggregation needs at least one sum column")
	}
	for _, col := range spec.Aggregation.Sum {
		for _, key := range spec.Aggregation.GroupBy {
			if col == key {
				problems = append(problems, fmt.Sprintf("column %s is both grouped and summed", col))
			}
		}
	}
	switch spec.NumericPolicy {
	case "", model.NumericPolicyZero, model.NumericPolicyStrict:
	default:
		problems = append(problems, fmt.Sprintf("unknown numeric policy %q", spec.NumericPolicy))
	}
	for _, name := range append(append([]string{}, spec.Transformations...), spec.ChartTransformations...) {
		if _, ok := transformations[name]; !ok {
			problems = append(problems, fmt.Sprintf("unknown transformation %q", name))
		}
	}
	if spec.Preview < 0 {
		problems = append(problems, "preview must not be negative")
	}
	switch spec.Display.Mode {
	case "", "browser", "file", "none":
	default:
		problems = append(problems, fmt.Sprintf("unknown display mode %q", spec.Display.Mode))
	}
	if !spec.SkipRender {
		if spec.Chart.X == "" || spec.Chart.Y == "" {
			problems = append(problems, "chart x and y are required")
		}
		if spec.Chart.Width <= 0 || spec.Chart.Height <= 0 {
			problems = append(problems, "chart width and height must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid report spec: %s", strings.Join(problems, "; "))
	}
	return nil
}
