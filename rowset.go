package fixturesql

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Value is a cell value: either a string or null.
type Value struct {
	s     string
	valid bool
}

// NewValue returns a non-null value.
func NewValue(s string) Value {
	return Value{s: s, valid: true}
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return !v.valid
}

// Text returns the string, with null mapped to the empty string.
func (v Value) Text() string {
	return v.s
}

// String implements fmt.Stringer. Null renders as <null>.
func (v Value) String() string {
	if !v.valid {
		return "<null>"
	}
	return v.s
}

// columnKey normalizes a column name for case-insensitive lookup.
func columnKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// RowSet is an immutable ordered collection of rows sharing one column vocabulary.
type RowSet struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// Columns returns the column names in their original order and spelling.
func (rs *RowSet) Columns() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.columns))
	copy(out, rs.columns)
	return out
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rows)
}

// IsEmpty reports whether the row set has no rows.
func (rs *RowSet) IsEmpty() bool {
	return rs.Len() == 0
}

// ColumnIndex returns the position of a column, looked up case-insensitively.
func (rs *RowSet) ColumnIndex(name string) (int, bool) {
	if rs == nil {
		return 0, false
	}
	i, ok := rs.index[columnKey(name)]
	return i, ok
}

// HasColumn reports whether the row set has the named column.
func (rs *RowSet) HasColumn(name string) bool {
	_, ok := rs.ColumnIndex(name)
	return ok
}

// Row returns the i-th row. It panics if i is out of range, like slice indexing.
func (rs *RowSet) Row(i int) Row {
	return Row{set: rs, values: rs.rows[i]}
}

// Rows returns every row in order.
func (rs *RowSet) Rows() []Row {
	if rs == nil {
		return nil
	}
	rows := make([]Row, len(rs.rows))
	for i := range rs.rows {
		rows[i] = rs.Row(i)
	}
	return rows
}

// Column returns every value of one column, in row order.
func (rs *RowSet) Column(name string) ([]Value, bool) {
	idx, ok := rs.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]Value, len(rs.rows))
	for i, row := range rs.rows {
		values[i] = row[idx]
	}
	return values, true
}

// Row is one row of a RowSet. Column lookups are case-insensitive and trimmed.
type Row struct {
	set    *RowSet
	values []Value
}

// Get returns the value of the named column and whether the column exists.
func (r Row) Get(column string) (Value, bool) {
	idx, ok := r.set.ColumnIndex(column)
	if !ok {
		return NullValue(), false
	}
	return r.values[idx], true
}

// Text returns the column's text; null and absent columns both yield "".
func (r Row) Text(column string) string {
	v, _ := r.Get(column)
	return v.Text()
}

// Values returns a copy of the row's values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}

// Columns returns the column vocabulary of the row.
func (r Row) Columns() []string {
	return r.set.Columns()
}

// RowSetBuilder accumulates rows for a new RowSet.
type RowSetBuilder struct {
	set *RowSet
}

// NewRowSetBuilder starts a row set with the given columns.
// Names that collide after trimming and case folding are rejected.
func NewRowSetBuilder(columns ...string) (*RowSetBuilder, error) {
	if err := validateColumnNames(columns); err != nil {
		return nil, &MalformedFixtureError{Err: err}
	}
	return newRenderedRowSetBuilder(columns...), nil
}

// newRenderedRowSetBuilder accepts blank and colliding names, as a rendered
// table header may have them. The first column wins on lookup.
func newRenderedRowSetBuilder(columns ...string) *RowSetBuilder {
	set := &RowSet{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		set.columns[i] = strings.TrimSpace(c)
		if _, dup := set.index[columnKey(c)]; !dup {
			set.index[columnKey(c)] = i
		}
	}
	return &RowSetBuilder{set: set}
}

// Append adds a row. Short rows are padded with null; long rows are rejected.
func (b *RowSetBuilder) Append(values ...Value) error {
	width := len(b.set.columns)
	if len(values) > width {
		return &MalformedFixtureError{
			Reason: fmt.Sprintf("row %d has %d cells but the header has %d columns", len(b.set.rows)+1, len(values), width),
		}
	}
	row := make([]Value, width)
	copy(row, values)
	b.set.rows = append(b.set.rows, row)
	return nil
}

// AppendText adds a row of non-null cells taken verbatim.
func (b *RowSetBuilder) AppendText(cells ...string) error {
	values := make([]Value, len(cells))
	for i, c := range cells {
		values[i] = NewValue(c)
	}
	return b.Append(values...)
}

// Build returns the finished RowSet. The builder must not be used afterwards.
func (b *RowSetBuilder) Build() *RowSet {
	set := b.set
	b.set = nil
	return set
}

// NewRowSet is a shorthand for inline fixtures: every cell is taken verbatim as non-null text.
func NewRowSet(columns []string, rows ...[]string) (*RowSet, error) {
	b, err := NewRowSetBuilder(columns...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := b.AppendText(r...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
