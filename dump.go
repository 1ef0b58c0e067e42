package fixturesql

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// xlsxSheetName is the sheet dumps are written to
const xlsxSheetName = "Sheet1"

// Dump writes rs to w in the format and compression of opts. Null cells are written
// as empty cells (omitted labels in LTSV, arrow nulls in Parquet), so the output loads
// back to the same row set.
func Dump(w io.Writer, rs *RowSet, opts DumpOptions) error {
	cw, cleanup, err := NewCompressionHandler(opts.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	if err := writeRowSet(cw, rs, opts.Format); err != nil {
		_ = cleanup() // Ignore cleanup error, the write error is reported
		return err
	}
	return cleanup()
}

// DumpFile writes rs to path. The parent directory must exist.
func DumpFile(path string, rs *RowSet, opts DumpOptions) error {
	ec := NewErrorContext("dump", path)
	if err := newValidator().validateOutputDirectory(filepath.Dir(path)); err != nil {
		return ec.Error(err)
	}

	w, cleanup, err := createCompressed(path, opts.Compression)
	if err != nil {
		return ec.Error(err)
	}
	if err := writeRowSet(w, rs, opts.Format); err != nil {
		_ = cleanup() // Ignore cleanup error, the write error is reported
		return ec.Error(err)
	}
	if err := cleanup(); err != nil {
		return ec.Error(err)
	}
	return nil
}

func writeRowSet(w io.Writer, rs *RowSet, format OutputFormat) error {
	switch format {
	case OutputFormatCSV:
		return writeDelimited(w, rs, csvDelimiter)
	case OutputFormatTSV:
		return writeDelimited(w, rs, tsvDelimiter)
	case OutputFormatLTSV:
		return writeLTSV(w, rs)
	case OutputFormatParquet:
		return writeParquet(w, rs)
	case OutputFormatXLSX:
		return writeXLSX(w, rs)
	default:
		return fmt.Errorf("%w: output format %d", ErrUnsupportedFormat, format)
	}
}

func writeDelimited(w io.Writer, rs *RowSet, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(rs.Columns()); err != nil {
		return err
	}
	for _, row := range rs.Rows() {
		values := row.Values()
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = v.Text()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ltsvEscaper keeps values on one line and free of field separators
var ltsvEscaper = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

func writeLTSV(w io.Writer, rs *RowSet) error {
	columns := rs.Columns()
	var b strings.Builder
	for _, row := range rs.Rows() {
		b.Reset()
		first := true
		for i, v := range row.Values() {
			if v.IsNull() {
				continue
			}
			if !first {
				b.WriteByte('\t')
			}
			first = false
			b.WriteString(columns[i])
			b.WriteByte(':')
			b.WriteString(ltsvEscaper.Replace(v.Text()))
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeParquet writes one record batch. Column types follow the inferred fixture types:
// integers as int64, reals as float64, everything else as string.
func writeParquet(w io.Writer, rs *RowSet) error {
	infos := inferColumnsInfo(rs)
	fields := make([]arrow.Field, len(infos))
	for i, info := range infos {
		fields[i] = arrow.Field{Name: info.Name, Type: arrowType(info.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for _, row := range rs.Rows() {
		for i, v := range row.Values() {
			if err := appendArrowValue(builder.Field(i), v); err != nil {
				return fmt.Errorf("column %s: %w", infos[i].Name, err)
			}
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	// the parquet writer closes its sink; the caller owns w
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w},
		parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		_ = fw.Close() // Ignore close error, the write error is reported
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	return fw.Close()
}

func arrowType(ct columnType) arrow.DataType {
	switch ct {
	case columnTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case columnTypeReal:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func appendArrowValue(b array.Builder, v Value) error {
	text := strings.TrimSpace(v.Text())
	switch fb := b.(type) {
	case *array.Int64Builder:
		if v.IsNull() || text == "" {
			fb.AppendNull()
			return nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		fb.Append(n)
	case *array.Float64Builder:
		if v.IsNull() || text == "" {
			fb.AppendNull()
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		fb.Append(f)
	case *array.StringBuilder:
		if v.IsNull() {
			fb.AppendNull()
			return nil
		}
		fb.Append(v.Text())
	default:
		return errors.New("unsupported arrow builder")
	}
	return nil
}

func writeXLSX(w io.Writer, rs *RowSet) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error
	}()

	header := make([]any, 0, len(rs.Columns()))
	for _, c := range rs.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return err
	}

	for r, row := range rs.Rows() {
		values := row.Values()
		cells := make([]any, len(values))
		for i, v := range values {
			if !v.IsNull() {
				cells[i] = v.Text()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &cells); err != nil {
			return err
		}
	}
	return f.Write(w)
}
