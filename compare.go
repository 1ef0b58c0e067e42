package fixturesql

import (
	"strings"
)

// Names of the two columns of an expectation table
const (
	expectationColumn = "Column"
	expectationValue  = "Value"
)

// Comparator checks actual row sets against expected ones.
type Comparator struct {
	failFast      bool
	blankWildcard bool
}

// CompareOption configures a Comparator.
type CompareOption func(*Comparator)

// WithFailFast stops at the first mismatching cell instead of collecting all of them.
func WithFailFast() CompareOption {
	return func(c *Comparator) {
		c.failFast = true
	}
}

// WithBlankWildcard makes blank expected cells match anything in rendered comparisons.
func WithBlankWildcard() CompareOption {
	return func(c *Comparator) {
		c.blankWildcard = true
	}
}

// NewComparator creates a comparator.
func NewComparator(opts ...CompareOption) *Comparator {
	c := &Comparator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompareRows compares expected and actual position by position. Row counts are
// checked first. Only the expected columns are compared; columns are looked up
// case-insensitively and values are trimmed, with null and absent cells as "".
func (c *Comparator) CompareRows(table string, expected, actual *RowSet) error {
	return c.compare(table, expected, actual, func(row Row, column string) (string, bool) {
		return row.Text(column), true
	}, false)
}

// CompareRendered compares an expected table against rows extracted from a rendered page.
// Header lookup is exact after trimming, and expected columns missing from the page
// are skipped.
func (c *Comparator) CompareRendered(name string, expected, actual *RowSet) error {
	headers := make(map[string]int)
	for i, h := range actual.Columns() {
		h = strings.TrimSpace(h)
		if _, dup := headers[h]; !dup {
			headers[h] = i
		}
	}
	return c.compare(name, expected, actual, func(row Row, column string) (string, bool) {
		idx, ok := headers[strings.TrimSpace(column)]
		if !ok {
			return "", false
		}
		return row.values[idx].Text(), true
	}, c.blankWildcard)
}

// compare is the shared positional loop. lookup reports false for columns to skip.
func (c *Comparator) compare(table string, expected, actual *RowSet, lookup func(Row, string) (string, bool), skipBlank bool) error {
	if expected.Len() != actual.Len() {
		return &RowCountMismatchError{Table: table, Expected: expected.Len(), Actual: actual.Len()}
	}

	columns := expected.Columns()
	var mismatches []CellMismatch
	for i := range expected.Len() {
		want, got := expected.Row(i), actual.Row(i)
		for _, column := range columns {
			wantText := strings.TrimSpace(want.Text(column))
			if skipBlank && wantText == "" {
				continue
			}
			gotText, ok := lookup(got, column)
			if !ok {
				continue
			}
			gotText = strings.TrimSpace(gotText)
			if wantText == gotText {
				continue
			}

			mismatches = append(mismatches, CellMismatch{Row: i, Column: column, Expected: wantText, Actual: gotText})
			if c.failFast {
				return &RowMismatchError{Table: table, Mismatches: mismatches}
			}
		}
	}

	if len(mismatches) > 0 {
		return &RowMismatchError{Table: table, Mismatches: mismatches}
	}
	return nil
}

// Expectation is one Column/Value pair of a conditional check.
type Expectation struct {
	Column string
	Value  string
}

// ParseExpectations reads a two-column expectation table. Its columns must be exactly
// Column and Value, in any order and case.
func ParseExpectations(rs *RowSet) ([]Expectation, error) {
	columns := rs.Columns()
	if len(columns) != 2 || !rs.HasColumn(expectationColumn) || !rs.HasColumn(expectationValue) {
		return nil, &InvalidExpectationShapeError{Columns: columns}
	}

	expectations := make([]Expectation, 0, rs.Len())
	for _, row := range rs.Rows() {
		expectations = append(expectations, Expectation{
			Column: strings.TrimSpace(row.Text(expectationColumn)),
			Value:  strings.TrimSpace(row.Text(expectationValue)),
		})
	}
	return expectations, nil
}

// CompareExpectations checks each expectation against row and fails on the first offending pair.
func (c *Comparator) CompareExpectations(table string, expectations []Expectation, row Row) error {
	for _, e := range expectations {
		v, ok := row.Get(e.Column)
		if !ok {
			return &UnknownColumnError{Table: table, Column: e.Column}
		}
		actual := strings.TrimSpace(v.Text())
		if actual != strings.TrimSpace(e.Value) {
			return &ValueMismatchError{Table: table, Column: e.Column, Expected: e.Value, Actual: actual}
		}
	}
	return nil
}
