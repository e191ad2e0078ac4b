package pipeline

import (
	"log"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/utils"
)

// FilterEquals returns the rows whose column equals value, in their original
// order and with the full schema. Numbers compare by value, so an int64 cell
// matches an int literal.
func FilterEquals(table *model.Table, column string, value interface{}) (*model.Table, error) {
	if missing := table.MissingColumns(column); len(missing) > 0 {
		return nil, &SchemaError{Stage: model.StageFilter, Missing: missing}
	}

	out := model.NewTable(table.Columns)
	for _, row := range table.Rows {
		if utils.ValuesEqual(row[column], value) {
			out.Rows = append(out.Rows, row.Clone())
		}
	}

	log.Printf("🔍 Filter %s == %v: kept %d of %d rows", column, value, out.Len(), table.Len())
	return out, nil
}
