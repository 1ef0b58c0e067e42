package fixturesql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error messages and error creation functions for consistency
var (
	// errDuplicateColumnName is returned when a fixture contains duplicate column names
	errDuplicateColumnName = errors.New("duplicate column name")

	// ErrMalformedFixture indicates that a fixture could not be parsed into a row set
	ErrMalformedFixture = errors.New("fixturesql: malformed fixture")

	// ErrMalformedJSON indicates that a JSON document could not be parsed
	ErrMalformedJSON = errors.New("fixturesql: malformed json")

	// ErrStore indicates a connectivity or execution failure reported by the backing store
	ErrStore = errors.New("fixturesql: store error")

	// ErrSchemaMismatch indicates that the destination table lacks a fixture column
	ErrSchemaMismatch = errors.New("fixturesql: schema mismatch")

	// ErrConfiguration indicates a missing or invalid setting
	ErrConfiguration = errors.New("fixturesql: configuration error")

	// ErrAssertion is the root of every assertion failure
	ErrAssertion = errors.New("fixturesql: assertion failed")

	// ErrUnsupportedFormat indicates an unsupported fixture file format
	ErrUnsupportedFormat = errors.New("fixturesql: unsupported file format")

	// ErrUnsupportedDriver indicates a database/sql driver name with no known dialect
	ErrUnsupportedDriver = errors.New("fixturesql: unsupported driver")

	// ErrNullGridKey indicates a null first-column value on the grid fetch path
	ErrNullGridKey = errors.New("fixturesql: null key in first column")

	// ErrNotJSONArray indicates that a JSON document is not an array
	ErrNotJSONArray = errors.New("fixturesql: json document is not an array")

	// ErrNoResponse indicates a response assertion before any request was sent
	ErrNoResponse = errors.New("fixturesql: no response recorded, send a request first")

	// ErrElementNotFound indicates that a selector matched nothing in a rendered page
	ErrElementNotFound = errors.New("fixturesql: no element matches selector")

	// ErrFileNotFound indicates file not found
	ErrFileNotFound = errors.New("fixturesql: file not found")

	// ErrDuplicateFixture indicates two fixture files that load the same table
	ErrDuplicateFixture = errors.New("fixturesql: duplicate fixture for table")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("fixturesql: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}
	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return errors.New(context)
}

// ConfigurationError reports a required setting that is absent or unparsable.
type ConfigurationError struct {
	Key    string
	Value  string
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fixturesql: configuration key %q", e.Key)
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, " has invalid value %q: %v", e.Value, e.Err)
	default:
		b.WriteString(" is not configured")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (check %s)", e.Source)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MalformedFixtureError reports a fixture that cannot become a row set.
type MalformedFixtureError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedFixtureError) Error() string {
	msg := "fixturesql: malformed fixture"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedFixtureError) Unwrap() error { return e.Err }

func (e *MalformedFixtureError) Is(target error) bool { return target == ErrMalformedFixture }

// MalformedJSONError reports a JSON operand that failed to parse.
type MalformedJSONError struct {
	// Operand is "expected" or "actual" when known.
	Operand string
	Err     error
}

func (e *MalformedJSONError) Error() string {
	if e.Operand == "" {
		return fmt.Sprintf("fixturesql: malformed json: %v", e.Err)
	}
	return fmt.Sprintf("fixturesql: malformed %s json: %v", e.Operand, e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

func (e *MalformedJSONError) Is(target error) bool { return target == ErrMalformedJSON }

// StoreError wraps a failure surfaced by the backing store. It is never retried.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("fixturesql: %s on %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("fixturesql: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// StatementError reports the zero-based index of the failing batch statement.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("fixturesql: batch statement %d failed: %v", e.Index, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

func (e *StatementError) Is(target error) bool { return target == ErrStore }

// SchemaMismatchError reports a bulk load whose columns do not exist in the destination.
type SchemaMismatchError struct {
	Table string
	Err   error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: destination %s does not match fixture columns: %v", e.Table, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch || target == ErrStore
}

// RowCountMismatchError is reported before any value comparison when row counts differ.
type RowCountMismatchError struct {
	Table    string
	Expected int
	Actual   int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: row count mismatch in %s: expected %d rows, got %d", e.Table, e.Expected, e.Actual)
}

func (e *RowCountMismatchError) Is(target error) bool { return target == ErrAssertion }

// CellMismatch locates one differing cell. Row is zero-based.
type CellMismatch struct {
	Row      int
	Column   string
	Expected string
	Actual   string
}

// RowMismatchError collects the cell mismatches of a positional comparison.
type RowMismatchError struct {
	Table      string
	Mismatches []CellMismatch
}

func (e *RowMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fixturesql: %d value mismatch(es) in %s", len(e.Mismatches), e.Table)
	for _, m := range e.Mismatches {
		fmt.Fprintf(&b, "\n  row %d, column %q: expected %q, got %q", m.Row+1, m.Column, m.Expected, m.Actual)
	}
	return b.String()
}

// First returns the first mismatch location.
func (e *RowMismatchError) First() CellMismatch {
	if len(e.Mismatches) == 0 {
		return CellMismatch{}
	}
	return e.Mismatches[0]
}

func (e *RowMismatchError) Is(target error) bool { return target == ErrAssertion }

// ValueMismatchError reports a conditional comparison field that differs.
type ValueMismatchError struct {
	Table    string
	Column   string
	Expected string
	Actual   string
}

func (e *ValueMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: column %q of %s: expected %q, got %q", e.Column, e.Table, e.Expected, e.Actual)
}

func (e *ValueMismatchError) Is(target error) bool { return target == ErrAssertion }

// UnknownColumnError reports an expected column the actual row does not have.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("fixturesql: unknown column %q", e.Column)
	}
	return fmt.Sprintf("fixturesql: unknown column %q in %s", e.Column, e.Table)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrAssertion }

// PredicateCardinalityError reports a conditional fetch that did not match exactly one row.
type PredicateCardinalityError struct {
	Table     string
	Predicate string
	Count     int
}

func (e *PredicateCardinalityError) Error() string {
	return fmt.Sprintf("fixturesql: condition %q on %s matched %d rows, expected exactly 1", e.Predicate, e.Table, e.Count)
}

func (e *PredicateCardinalityError) Is(target error) bool { return target == ErrAssertion }

// InvalidExpectationShapeError reports an expectation table whose columns are not exactly Column and Value.
type InvalidExpectationShapeError struct {
	Columns []string
}

func (e *InvalidExpectationShapeError) Error() string {
	return fmt.Sprintf("fixturesql: expectation table must have exactly the columns Column and Value, got [%s]",
		strings.Join(e.Columns, ", "))
}

func (e *InvalidExpectationShapeError) Is(target error) bool { return target == ErrAssertion }

// JSONMismatchError carries the canonical forms of two documents that differ.
type JSONMismatchError struct {
	Expected string
	Actual   string
}

func (e *JSONMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: json mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *JSONMismatchError) Is(target error) bool { return target == ErrAssertion }

// StatusMismatchError reports an unexpected HTTP status code.
type StatusMismatchError struct {
	Expected int
	Actual   int
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: status code mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *StatusMismatchError) Is(target error) bool { return target == ErrAssertion }

// LengthMismatchError reports a JSON array of unexpected length.
type LengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("fixturesql: json array length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrAssertion }
