package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"go-prison-stats/internal/model"
)

const prisonCSV = `state_name,year,gender,caste,detenues,under_trial,convicts,others
Maharashtra,2012,Male,OBC,1,10,10,0
Maharashtra,2012,Male,SC,0,4,5,1
Maharashtra,2012,Female,OBC,0,2,3,
Kerala,2012,Male,OBC,2,7,8,0
Maharashtra,2013,Female,SC,1,1,1,0
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newTable(columns []string, rows ...model.Row) *model.Table {
	t := model.NewTable(columns)
	t.Rows = append(t.Rows, rows...)
	return t
}

var groupCols = []string{"year", "gender"}
var sumCols = []string{"detenues", "under_trial", "convicts", "others"}

// prisonAggregate is the expected result of filtering prisonCSV to
// Maharashtra and grouping by year and gender.
func prisonAggregate() *model.Table {
	return newTable(append(append([]string{}, groupCols...), sumCols...),
		model.Row{"year": int64(2012), "gender": "Male", "detenues": int64(1), "under_trial": int64(14), "convicts": int64(15), "others": int64(1)},
		model.Row{"year": int64(2012), "gender": "Female", "detenues": int64(0), "under_trial": int64(2), "convicts": int64(3), "others": int64(0)},
		model.Row{"year": int64(2013), "gender": "Female", "detenues": int64(1), "under_trial": int64(1), "convicts": int64(1), "others": int64(0)},
	)
}
