package xlchunk

import (
	"sort"

	"github.com/xuri/excelize/v2"
)

// Row is one sheet row keyed by column letter ("A", "B", ...). Every column up
// to the highest populated column of the load pass is present; empty cells
// hold "".
type Row map[string]string

// Rows maps a row number to its Row. Chunks from ReadNextRows are numbered
// from 1 within the chunk; Read keys rows by their absolute sheet position.
type Rows map[int]Row

// Columns returns the column letters of r in sheet order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		return columnNumber(cols[i]) < columnNumber(cols[j])
	})
	return cols
}

// Values returns the cell values of r in column order.
func (r Row) Values() []string {
	cols := r.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// Record converts r into a writer Record, keeping column order and using the
// column letters as field names.
func (r Row) Record() Record {
	cols := r.Columns()
	rec := make(Record, len(cols))
	for i, c := range cols {
		rec[i] = Field{Name: c, Value: r[c]}
	}
	return rec
}

// Keys returns the row numbers of rs in ascending order.
func (rs Rows) Keys() []int {
	keys := make([]int, 0, len(rs))
	for k := range rs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of named values, the unit the Writer puts on one row.
type Record []Field

// RecordOf pairs names with values. Extra names or values are ignored.
func RecordOf(names []string, values ...any) Record {
	n := min(len(names), len(values))
	rec := make(Record, n)
	for i := 0; i < n; i++ {
		rec[i] = Field{Name: names[i], Value: values[i]}
	}
	return rec
}

// RecordFromMap builds a Record from m with field names in sorted order.
func RecordFromMap(m map[string]any) Record {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	rec := make(Record, len(names))
	for i, k := range names {
		rec[i] = Field{Name: k, Value: m[k]}
	}
	return rec
}

// Get returns the value of the first field called name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Name
	}
	return out
}

// columnName converts a 1-based column number to its letter name.
func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}

// columnNumber converts a column letter name to its 1-based number, or 0.
func columnNumber(name string) int {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0
	}
	return n
}
