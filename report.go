package fixturesql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	tableHeaderFmt     = color.New(color.FgBlue, color.Bold).SprintfFunc()
	legendExpectedFmt  = color.New(color.FgGreen).SprintFunc()
	legendActualFmt    = color.New(color.FgRed).SprintFunc()
	rowLabelFmt        = color.New(color.FgBlue, color.Bold).SprintfFunc()
	expectPrefixFmt    = color.New(color.BgGreen, color.FgBlack).SprintFunc()
	actualPrefixFmt    = color.New(color.BgRed, color.FgBlack).SprintFunc()
	expectFieldFmt     = color.New(color.FgGreen).SprintfFunc()
	actualFieldFmt     = color.New(color.FgRed).SprintfFunc()
	expectValueFmt     = color.New(color.BgGreen, color.FgBlack).SprintfFunc()
	actualValueFmt     = color.New(color.BgRed, color.FgBlack).SprintfFunc()
	expectSeparatorFmt = color.New(color.FgGreen).SprintFunc()
	actualSeparatorFmt = color.New(color.FgRed).SprintFunc()
)

// RenderFailure renders an assertion failure as a readable diff, expected values
// in green and actual values in red. Other errors render as their message.
func RenderFailure(err error) string {
	if err == nil {
		return ""
	}

	var (
		rowErr    *RowMismatchError
		countErr  *RowCountMismatchError
		valueErr  *ValueMismatchError
		jsonErr   *JSONMismatchError
		statusErr *StatusMismatchError
		lengthErr *LengthMismatchError
	)

	var b strings.Builder
	switch {
	case errors.As(err, &rowErr):
		writeHeader(&b, rowErr.Table)
		writeCellMismatches(&b, rowErr.Mismatches)
	case errors.As(err, &countErr):
		writeHeader(&b, countErr.Table)
		writeFieldPair(&b, "rows", fmt.Sprint(countErr.Expected), fmt.Sprint(countErr.Actual))
	case errors.As(err, &valueErr):
		writeHeader(&b, valueErr.Table)
		writeFieldPair(&b, valueErr.Column, valueErr.Expected, valueErr.Actual)
	case errors.As(err, &jsonErr):
		writeHeader(&b, "")
		writeFieldPair(&b, "json", jsonErr.Expected, jsonErr.Actual)
	case errors.As(err, &statusErr):
		writeHeader(&b, "")
		writeFieldPair(&b, "status", fmt.Sprint(statusErr.Expected), fmt.Sprint(statusErr.Actual))
	case errors.As(err, &lengthErr):
		writeHeader(&b, "")
		writeFieldPair(&b, "length", fmt.Sprint(lengthErr.Expected), fmt.Sprint(lengthErr.Actual))
	default:
		return err.Error()
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeHeader(b *strings.Builder, table string) {
	if table != "" {
		b.WriteString(tableHeaderFmt("Table: %s\n", table))
	}
	b.WriteString(legendExpectedFmt("- Expected\n"))
	b.WriteString(legendActualFmt("+ Actual\n"))
}

// writeCellMismatches groups mismatches by row, keeping their reported order
func writeCellMismatches(b *strings.Builder, mismatches []CellMismatch) {
	for start := 0; start < len(mismatches); {
		row := mismatches[start].Row
		end := start
		for end < len(mismatches) && mismatches[end].Row == row {
			end++
		}

		b.WriteString(rowLabelFmt("row #%d [mismatch]\n", row+1))
		expected := make([]string, 0, end-start)
		actual := make([]string, 0, end-start)
		for _, m := range mismatches[start:end] {
			expected = append(expected, expectFieldFmt("%s: %s", m.Column, expectValueFmt("%s", quoteCell(m.Expected))))
			actual = append(actual, actualFieldFmt("%s: %s", m.Column, actualValueFmt("%s", quoteCell(m.Actual))))
		}
		writeFieldLine(b, expectPrefixFmt, "-", expectSeparatorFmt, expected)
		writeFieldLine(b, actualPrefixFmt, "+", actualSeparatorFmt, actual)

		start = end
	}
}

func writeFieldPair(b *strings.Builder, label, expected, actual string) {
	writeFieldLine(b, expectPrefixFmt, "-", expectSeparatorFmt,
		[]string{expectFieldFmt("%s: %s", label, expectValueFmt("%s", quoteCell(expected)))})
	writeFieldLine(b, actualPrefixFmt, "+", actualSeparatorFmt,
		[]string{actualFieldFmt("%s: %s", label, actualValueFmt("%s", quoteCell(actual)))})
}

func writeFieldLine(b *strings.Builder, prefix func(...any) string, sign string, sep func(...any) string, fields []string) {
	if len(fields) == 0 {
		return
	}

	b.WriteString(prefix(sign))
	b.WriteString(" ")
	for i, field := range fields {
		if i > 0 {
			b.WriteString(sep(", "))
		}
		b.WriteString(field)
	}
	b.WriteString("\n")
}

// quoteCell makes empty and padded values visible
func quoteCell(s string) string {
	if s == "" || strings.TrimSpace(s) != s {
		return fmt.Sprintf("%q", s)
	}
	return s
}
