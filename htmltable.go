package fixturesql

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default locators for a plain HTML table
const (
	DefaultHeaderLocator = "thead th, tr:first-child th"
	DefaultRowLocator    = "tbody tr"
)

// TableSource is the capability a rendered page offers for reading a table.
// Locators are CSS selectors.
type TableSource interface {
	// HeaderTexts returns the visible text of each header cell, in document order.
	HeaderTexts(ctx context.Context, locator string) ([]string, error)
	// RowTexts returns the visible text of each data cell, row by row.
	RowTexts(ctx context.Context, locator string) ([][]string, error)
}

// Extract builds a row set from the table exposed by src, in rendered header order.
// Texts are trimmed and short rows are padded with null. Blank and repeated headers are
// kept; lookups resolve to the first of them. Empty locators select the defaults.
func Extract(ctx context.Context, src TableSource, headerLocator, rowLocator string) (*RowSet, error) {
	if strings.TrimSpace(headerLocator) == "" {
		headerLocator = DefaultHeaderLocator
	}
	if strings.TrimSpace(rowLocator) == "" {
		rowLocator = DefaultRowLocator
	}

	headers, err := src.HeaderTexts(ctx, headerLocator)
	if err != nil {
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	b := newRenderedRowSetBuilder(headers...)

	rows, err := src.RowTexts(ctx, rowLocator)
	if err != nil {
		return nil, err
	}
	for _, cells := range rows {
		values := make([]Value, len(cells))
		for i, c := range cells {
			values[i] = NewValue(strings.TrimSpace(c))
		}
		if err := b.Append(values...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// CellText returns the text of one cell, addressed by header (case-insensitive) and 1-based row.
func CellText(ctx context.Context, src TableSource, column string, row int) (string, error) {
	headers, err := src.HeaderTexts(ctx, DefaultHeaderLocator)
	if err != nil {
		return "", err
	}
	idx := -1
	for i, h := range headers {
		if columnKey(h) == columnKey(column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", &UnknownColumnError{Column: column}
	}

	rows, err := src.RowTexts(ctx, DefaultRowLocator)
	if err != nil {
		return "", err
	}
	if row < 1 || row > len(rows) {
		return "", &RowCountMismatchError{Table: "rendered table", Expected: row, Actual: len(rows)}
	}
	cells := rows[row-1]
	if idx >= len(cells) {
		return "", nil
	}
	return strings.TrimSpace(cells[idx]), nil
}

// HTMLTable is a TableSource over a parsed HTML document.
type HTMLTable struct {
	root *html.Node
}

// ParseHTMLTable parses an HTML document. A non-empty tableSelector scopes every
// locator to the first element it matches.
func ParseHTMLTable(r io.Reader, tableSelector string) (*HTMLTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if strings.TrimSpace(tableSelector) == "" {
		return &HTMLTable{root: doc}, nil
	}

	sel, err := compileLocator(tableSelector)
	if err != nil {
		return nil, err
	}
	table := cascadia.Query(doc, sel)
	if table == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, tableSelector)
	}
	return &HTMLTable{root: table}, nil
}

// HeaderTexts implements TableSource.
func (t *HTMLTable) HeaderTexts(_ context.Context, locator string) ([]string, error) {
	sel, err := compileLocator(locator)
	if err != nil {
		return nil, err
	}
	nodes := cascadia.QueryAll(t.root, sel)
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = nodeText(n)
	}
	return texts, nil
}

// RowTexts implements TableSource. Rows without data cells, such as a header row
// the parser moved into tbody, are skipped.
func (t *HTMLTable) RowTexts(_ context.Context, locator string) ([][]string, error) {
	sel, err := compileLocator(locator)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, tr := range cascadia.QueryAll(t.root, sel) {
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Td {
				cells = append(cells, nodeText(c))
			}
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

func compileLocator(locator string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	return sel, nil
}

// nodeText returns the rendered text of n with whitespace runs collapsed to one space
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
