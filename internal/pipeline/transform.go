package pipeline

import (
	"fmt"
	"log"
	"strings"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/utils"
)

// transformFunc returns a new table and never modifies its input
type transformFunc func(*model.Table) (*model.Table, error)

// transformations are the named steps a report spec may list
var transformations = map[string]transformFunc{
	"trimStrings": trimStrings,
	"errorBars":   errorBars,
	"dropMissing": dropMissing,
}

// Transform applies the named transformations in order.
func Transform(table *model.Table, names []string) (*model.Table, error) {
	result := table
	for _, name := range names {
		fn, ok := transformations[name]
		if !ok {
			return nil, fmt.Errorf("unknown transformation: %s", name)
		}
		next, err := fn(result)
		if err != nil {
			return nil, fmt.Errorf("transformation %s failed: %w", name, err)
		}
		log.Printf("🔄 Transform %s: %d -> %d rows", name, result.Len(), next.Len())
		result = next
	}
	return result, nil
}

// trimStrings trims whitespace from all string fields
func trimStrings(table *model.Table) (*model.Table, error) {
	out := model.NewTable(table.Columns)
	for _, row := range table.Rows {
		rec := row.Clone()
		for key, val := range rec {
			if str, ok := val.(string); ok {
				rec[key] = strings.TrimSpace(str)
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// errorBars derives asymmetric error columns from convicts:
// err_plus = convicts/100, err_minus = convicts/40.
func errorBars(table *model.Table) (*model.Table, error) {
	if err := RequireColumns(model.StageTransform, table, "convicts"); err != nil {
		return nil, err
	}

	columns := append([]string{}, table.Columns...)
	for _, c := range []string{"err_plus", "err_minus"} {
		if !table.HasColumn(c) {
			columns = append(columns, c)
		}
	}

	out := model.NewTable(columns)
	for _, row := range table.Rows {
		rec := row.Clone()
		if v, ok := utils.Numeric(row["convicts"]); ok {
			rec["err_plus"] = v / 100
			rec["err_minus"] = v / 40
		} else {
			rec["err_plus"] = nil
			rec["err_minus"] = nil
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// dropMissing removes rows holding a missing value in any column
func dropMissing(table *model.Table) (*model.Table, error) {
	out := model.NewTable(table.Columns)
	for _, row := range table.Rows {
		complete := true
		for _, col := range table.Columns {
			if row[col] == nil {
				complete = false
				break
			}
		}
		if complete {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out, nil
}
