package pipeline

import (
	"log"
	"strings"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/utils"
)

// AggregateStats describes one GroupSum call
type AggregateStats struct {
	RowsIn      int            `json:"rows_in"`
	Groups      int            `json:"groups"`
	DroppedKeys int            `json:"dropped_keys"` // rows with a missing group value
	Coerced     int            `json:"coerced"`
	CoercedBy   map[string]int `json:"coerced_by,omitempty"`
}

// sumCell accumulates one value column of one group. The sum stays integral
// until the first float contributes.
type sumCell struct {
	ints     int64
	floats   float64
	integral bool
}

func (c *sumCell) add(v interface{}) {
	if i, ok := utils.Integral(v); ok {
		c.ints += i
		return
	}
	f, _ := utils.Numeric(v)
	c.floats += f
	c.integral = false
}

func (c *sumCell) value() interface{} {
	if c.integral {
		return c.ints
	}
	return float64(c.ints) + c.floats
}

type groupAcc struct {
	key  model.Row
	sums []*sumCell
}

// GroupSum partitions rows by the groupBy columns and sums each sum column per
// group. Groups come out in the order their key first appears. Rows with a
// missing group value are left out. The output schema is groupBy followed by
// sum, even when the input is empty.
func GroupSum(table *model.Table, groupBy, sum []string, policy string) (*model.Table, *AggregateStats, error) {
	if err := RequireColumns(model.StageAggregate, table, append(append([]string{}, groupBy...), sum...)...); err != nil {
		return nil, nil, err
	}
	if policy == "" {
		policy = model.NumericPolicyZero
	}

	stats := &AggregateStats{RowsIn: table.Len(), CoercedBy: map[string]int{}}
	index := make(map[string]*groupAcc)
	var order []*groupAcc

	for i, row := range table.Rows {
		key, ok := groupKey(row, groupBy)
		if !ok {
			stats.DroppedKeys++
			continue
		}

		acc, exists := index[key]
		if !exists {
			acc = &groupAcc{key: make(model.Row, len(groupBy)), sums: make([]*sumCell, len(sum))}
			for _, col := range groupBy {
				acc.key[col] = row[col]
			}
			for j := range acc.sums {
				acc.sums[j] = &sumCell{integral: true}
			}
			index[key] = acc
			order = append(order, acc)
		}

		for j, col := range sum {
			v := row[col]
			if _, numeric := utils.Numeric(v); !numeric {
				if policy == model.NumericPolicyStrict {
					return nil, nil, &NonNumericError{Column: col, Row: i, Value: v}
				}
				stats.Coerced++
				stats.CoercedBy[col]++
				continue
			}
			acc.sums[j].add(v)
		}
	}

	out := model.NewTable(append(append([]string{}, groupBy...), sum...))
	for _, acc := range order {
		row := acc.key.Clone()
		for j, col := range sum {
			row[col] = acc.sums[j].value()
		}
		out.Rows = append(out.Rows, row)
	}
	stats.Groups = out.Len()

	if stats.Coerced > 0 {
		log.Printf("⚠️ Aggregate: %d missing or non-numeric values counted as 0", stats.Coerced)
	}
	log.Printf("📊 Aggregate by %s: %d groups from %d rows", strings.Join(groupBy, ", "), stats.Groups, stats.RowsIn)
	return out, stats, nil
}

// groupKey builds the composite key of a row; false when a key value is missing.
func groupKey(row model.Row, groupBy []string) (string, bool) {
	parts := make([]string, len(groupBy))
	for i, col := range groupBy {
		v := row[col]
		if v == nil {
			return "", false
		}
		parts[i] = utils.KeyPart(v)
	}
	return strings.Join(parts, "\x1f"), true
}
