package fixturesql

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// fixtureParser turns one decompressed fixture stream into a RowSet.
// Every format shares the cell rule: values are trimmed and an empty cell is null.
type fixtureParser struct {
	fileType FileType
	// source names the fixture in error messages (a path, or the format for bare readers)
	source string
}

// newFixtureParser creates a parser for fileType
func newFixtureParser(fileType FileType, source string) *fixtureParser {
	if source == "" {
		source = fileType.String()
	}
	return &fixtureParser{fileType: fileType, source: source}
}

// parse reads the whole stream and builds the row set
func (p *fixtureParser) parse(reader io.Reader) (*RowSet, error) {
	switch p.fileType {
	case FileTypeCSV:
		return p.parseDelimited(skipBOM(reader), csvDelimiter)
	case FileTypeTSV:
		return p.parseDelimited(skipBOM(reader), tsvDelimiter)
	case FileTypeLTSV:
		return p.parseLTSV(skipBOM(reader))
	case FileTypeXLSX:
		return p.parseXLSX(reader)
	case FileTypeParquet:
		return p.parseParquet(reader)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.source)
	}
}

// skipBOM drops a leading UTF-8 byte order mark, as written by spreadsheet tools
func skipBOM(reader io.Reader) io.Reader {
	return transform.NewReader(reader, unicode.BOMOverride(transform.Nop))
}

func (p *fixtureParser) malformed(reason string, err error) error {
	return &MalformedFixtureError{Source: p.source, Reason: reason, Err: err}
}

// cellValue applies the shared cell rule
func cellValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NullValue()
	}
	return NewValue(trimmed)
}

// newBuilder validates a header row and starts a row set
func (p *fixtureParser) newBuilder(header []string) (*RowSetBuilder, error) {
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			return nil, p.malformed(fmt.Sprintf("header column %d is empty", i+1), nil)
		}
	}
	b, err := NewRowSetBuilder(header...)
	if err != nil {
		return nil, p.malformed("", errors.Unwrap(err))
	}
	return b, nil
}

// appendCells converts raw cells and appends them as one row
func (p *fixtureParser) appendCells(b *RowSetBuilder, cells []string) error {
	values := make([]Value, len(cells))
	for i, c := range cells {
		values[i] = cellValue(c)
	}
	if err := b.Append(values...); err != nil {
		var mf *MalformedFixtureError
		if errors.As(err, &mf) {
			return p.malformed(mf.Reason, nil)
		}
		return err
	}
	return nil
}

// parseDelimited parses CSV or TSV: the first record is the header
func (p *fixtureParser) parseDelimited(reader io.Reader, delimiter rune) (*RowSet, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	// short rows are padded and long rows rejected by the builder
	csvReader.FieldsPerRecord = -1
	if delimiter == tsvDelimiter {
		csvReader.LazyQuotes = true
	}

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, p.malformed("missing header record", nil)
	}
	if err != nil {
		return nil, p.malformed("", err)
	}

	b, err := p.newBuilder(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.malformed("", err)
		}
		if err := p.appendCells(b, record); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// parseLTSV parses label:value pairs separated by tabs, one record per line.
// The header is the union of labels in first-seen order; absent labels are null.
func (p *fixtureParser) parseLTSV(reader io.Reader) (*RowSet, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read LTSV: %w", err)
	}

	var (
		header  []string
		seen    = make(map[string]bool)
		records []map[string]string
	)
	for n, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		record := make(map[string]string)
		for pair := range strings.SplitSeq(line, "\t") {
			label, value, ok := strings.Cut(pair, ":")
			if !ok {
				return nil, p.malformed(fmt.Sprintf("line %d: field %q has no label", n+1, pair), nil)
			}
			label = strings.TrimSpace(label)
			if !seen[label] {
				seen[label] = true
				header = append(header, label)
			}
			record[label] = value
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, p.malformed("no LTSV records found", nil)
	}

	b, err := p.newBuilder(header)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		values := make([]Value, len(header))
		for i, label := range header {
			if raw, ok := record[label]; ok {
				values[i] = cellValue(raw)
			}
		}
		if err := b.Append(values...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// parseXLSX reads the first sheet; its first non-empty row is the header
func (p *fixtureParser) parseXLSX(reader io.Reader) (*RowSet, error) {
	xlsxFile, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, p.malformed("failed to open XLSX file", err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, p.malformed("no sheets found in XLSX file", nil)
	}

	sheetName := sheetNames[0]
	rows, err := xlsxFile.GetRows(sheetName)
	if err != nil {
		return nil, p.malformed(fmt.Sprintf("failed to read sheet %s", sheetName), err)
	}

	var b *RowSetBuilder
	for _, row := range rows {
		if b == nil {
			// skip leading empty rows
			if len(row) == 0 {
				continue
			}
			if b, err = p.newBuilder(row); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.appendCells(b, row); err != nil {
			return nil, err
		}
	}

	if b == nil {
		return nil, p.malformed(fmt.Sprintf("sheet %s is empty", sheetName), nil)
	}
	return b.Build(), nil
}

// parseParquet reads a Parquet file through arrow. Arrow nulls stay null;
// every other value is rendered as text.
func (p *fixtureParser) parseParquet(reader io.Reader) (*RowSet, error) {
	// Parquet requires random access
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, p.malformed("empty parquet file", nil)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, p.malformed("failed to create parquet reader", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, p.malformed("failed to create arrow reader", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, p.malformed("failed to read table", err)
	}
	defer table.Release()

	fields := table.Schema().Fields()
	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.Name
	}
	b, err := p.newBuilder(header)
	if err != nil {
		return nil, err
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			values := make([]Value, batch.NumCols())
			for j, col := range batch.Columns() {
				values[j] = extractArrowValue(col, i)
			}
			if err := b.Append(values...); err != nil {
				return nil, err
			}
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, p.malformed("error reading table records", err)
	}

	return b.Build(), nil
}

// extractArrowValue renders one arrow cell
func extractArrowValue(col arrow.Array, i int) Value {
	if col.IsNull(i) {
		return NullValue()
	}
	switch a := col.(type) {
	case *array.Float64:
		return NewValue(strconv.FormatFloat(a.Value(i), 'f', -1, 64))
	case *array.Float32:
		return NewValue(strconv.FormatFloat(float64(a.Value(i)), 'f', -1, 32))
	case *array.String:
		return cellValue(a.Value(i))
	default:
		return NewValue(col.ValueStr(i))
	}
}
