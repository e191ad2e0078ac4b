package model

// Row is one record of a dataset. Values are string, int64, float64 or nil
// when the cell was empty.
type Row map[string]interface{}

// Table is an ordered sequence of rows sharing Columns as their schema
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable returns an empty table with a copy of the given schema.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: []Row{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is part of the schema.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names not present in the schema, in input order.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Head returns a new table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	out := NewTable(t.Columns)
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for _, r := range t.Rows[:n] {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []interface{} {
	vals := make([]interface{}, 0, len(t.Rows))
	for _, r := range t.Rows {
		vals = append(vals, r[name])
	}
	return vals
}

// Clone copies a row so callers can change it without touching the source
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
