package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"go-prison-stats/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestGroupSumExample(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(10)},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(5)},
		model.Row{"year": int64(2012), "gender": "Female", "convicts": int64(3)},
	)

	out, stats, err := GroupSum(in, groupCols, []string{"convicts"}, model.NumericPolicyZero)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}

	want := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(15)},
		model.Row{"year": int64(2012), "gender": "Female", "convicts": int64(3)},
	)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if stats.RowsIn != 3 || stats.Groups != 2 || stats.Coerced != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGroupSumFilteredPrisonData(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Caste.csv", prisonCSV)
	loaded, err := LoadTable(context.Background(), model.Source{URL: path})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	filtered, err := FilterEquals(loaded, "state_name", "Maharashtra")
	if err != nil {
		t.Fatalf("FilterEquals: %v", err)
	}

	out, stats, err := GroupSum(filtered, groupCols, sumCols, "")
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if diff := cmp.Diff(prisonAggregate(), out); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if stats.Coerced != 1 || stats.CoercedBy["others"] != 1 {
		t.Errorf("coerced = %d %v, want 1 in others", stats.Coerced, stats.CoercedBy)
	}

	// conservation of totals
	for _, col := range sumCols {
		var before, after int64
		for _, r := range filtered.Rows {
			if v, ok := r[col].(int64); ok {
				before += v
			}
		}
		for _, r := range out.Rows {
			after += r[col].(int64)
		}
		if before != after {
			t.Errorf("%s: sum before %d, after %d", col, before, after)
		}
	}
}

func TestGroupSumIdempotent(t *testing.T) {
	first := prisonAggregate()

	again, _, err := GroupSum(first, groupCols, sumCols, model.NumericPolicyZero)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("second aggregation changed the table (-want +got):\n%s", diff)
	}
}

func TestGroupSumDeterministic(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"})
	for i := 0; i < 50; i++ {
		in.Rows = append(in.Rows, model.Row{"year": int64(2000 + i%7), "gender": []string{"Male", "Female"}[i%2], "convicts": int64(i)})
	}

	first, _, err := GroupSum(in, groupCols, []string{"convicts"}, "")
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, _ := GroupSum(in, groupCols, []string{"convicts"}, "")
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestGroupSumEmptyInput(t *testing.T) {
	in := newTable([]string{"state_name", "year", "gender", "detenues", "under_trial", "convicts", "others"})

	out, stats, err := GroupSum(in, groupCols, sumCols, "")
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	want := []string{"year", "gender", "detenues", "under_trial", "convicts", "others"}
	if diff := cmp.Diff(want, out.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if out.Len() != 0 || stats.Groups != 0 {
		t.Errorf("got %d rows", out.Len())
	}
}

func TestGroupSumStrictRejectsNonNumeric(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(1)},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": "n/a"},
	)

	_, _, err := GroupSum(in, groupCols, []string{"convicts"}, model.NumericPolicyStrict)
	var ne *NonNumericError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NonNumericError", err)
	}
	if ne.Column != "convicts" || ne.Row != 1 || ne.Value != "n/a" {
		t.Errorf("got %+v", ne)
	}
	if errorType(err) != "non_numeric" {
		t.Errorf("errorType = %q", errorType(err))
	}

	in.Rows[1]["convicts"] = nil
	if _, _, err := GroupSum(in, groupCols, []string{"convicts"}, model.NumericPolicyStrict); !errors.Is(err, ErrNonNumeric) {
		t.Errorf("missing value: err = %v, want ErrNonNumeric", err)
	}
}

func TestGroupSumZeroPolicyCoerces(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": "n/a"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": nil},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(4)},
	)

	out, stats, err := GroupSum(in, groupCols, []string{"convicts"}, model.NumericPolicyZero)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if got := out.Rows[0]["convicts"]; got != int64(4) {
		t.Errorf("sum = %#v, want int64(4)", got)
	}
	if stats.Coerced != 2 {
		t.Errorf("coerced = %d, want 2", stats.Coerced)
	}
}

func TestGroupSumMissingMarkersCountAsZero(t *testing.T) {
	path := writeFile(t, t.TempDir(), "markers.csv", `year,gender,convicts,others
2012,Male,10,0
2012,Male,NaN,1
2012,Male,inf,NA
`)
	in, err := LoadTable(context.Background(), model.Source{URL: path})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	in.Rows = append(in.Rows, model.Row{"year": int64(2012), "gender": "Male", "convicts": math.NaN(), "others": int64(2)})

	out, stats, err := GroupSum(in, groupCols, []string{"convicts", "others"}, model.NumericPolicyZero)
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	want := newTable([]string{"year", "gender", "convicts", "others"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(10), "others": int64(3)},
	)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if stats.Coerced != 4 {
		t.Errorf("coerced = %d, want 4", stats.Coerced)
	}

	if _, _, err := GroupSum(in, groupCols, []string{"convicts"}, model.NumericPolicyStrict); !errors.Is(err, ErrNonNumeric) {
		t.Errorf("strict: err = %v, want ErrNonNumeric", err)
	}
}

func TestGroupSumFloatValues(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(1)},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": 0.5},
	)

	out, _, err := GroupSum(in, groupCols, []string{"convicts"}, "")
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if got := out.Rows[0]["convicts"]; got != 1.5 {
		t.Errorf("sum = %#v, want 1.5", got)
	}
}

func TestGroupSumKeysAreTyped(t *testing.T) {
	in := newTable([]string{"year", "gender", "convicts"},
		model.Row{"year": int64(2012), "gender": "Male", "convicts": int64(1)},
		model.Row{"year": "2012", "gender": "Male", "convicts": int64(2)},
		model.Row{"year": nil, "gender": "Male", "convicts": int64(4)},
	)

	out, stats, err := GroupSum(in, groupCols, []string{"convicts"}, "")
	if err != nil {
		t.Fatalf("GroupSum: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("got %d groups, want 2: %v", out.Len(), out.Rows)
	}
	if stats.DroppedKeys != 1 {
		t.Errorf("dropped = %d, want 1", stats.DroppedKeys)
	}
}

func TestGroupSumMissingColumns(t *testing.T) {
	in := newTable([]string{"year", "convicts"})

	_, _, err := GroupSum(in, groupCols, []string{"convicts", "others"}, "")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if diff := cmp.Diff([]string{"gender", "others"}, se.Missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}
