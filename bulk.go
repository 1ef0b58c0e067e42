package fixturesql

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

// BulkLoader writes row sets into existing tables. Columns map 1:1 by name and rows
// are appended; existing rows are never touched.
type BulkLoader struct {
	store     *Store
	chunkSize ChunkSize
}

// BulkOption configures a BulkLoader.
type BulkOption func(*BulkLoader)

// WithChunkSize sets the rows per multi-row INSERT on dialects without a bulk protocol.
func WithChunkSize(rows int) BulkOption {
	return func(l *BulkLoader) {
		l.chunkSize = NewChunkSize(rows)
	}
}

// NewBulkLoader creates a loader bound to store.
func NewBulkLoader(store *Store, opts ...BulkOption) *BulkLoader {
	l := &BulkLoader{
		store:     store,
		chunkSize: NewChunkSize(DefaultRowsPerChunk),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Insert appends every row of rs to table and returns the number of rows written.
// An empty row set is a no-op. A fixture column missing from the destination is
// reported as *SchemaMismatchError, any other failure as *StoreError.
//
// PostgreSQL uses COPY FROM STDIN, SQL Server the TDS bulk copy, and SQLite and
// MySQL chunked multi-row INSERT statements in one transaction. On every path but
// SQL Server the mismatch comes back from the store; the SQL Server path reads the
// destination columns first and reports the mismatch before any row is sent.
func (l *BulkLoader) Insert(ctx context.Context, table string, rs *RowSet) (int64, error) {
	if rs.IsEmpty() {
		return 0, nil
	}

	dialect := l.store.Dialect()
	var (
		written int64
		path    string
	)
	err := l.store.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		switch dialect {
		case DialectPostgres:
			path = "copy"
			written, err = copyPostgres(ctx, conn, table, rs)
		case DialectSQLServer:
			path = "bulkcopy"
			written, err = copySQLServer(ctx, conn, table, rs)
		default:
			path = "insert"
			written, err = newChunkInserter(dialect, l.chunkSize).insert(ctx, conn, table, rs)
		}
		return err
	})
	if err != nil {
		l.store.logger.Info("bulk insert failed",
			zap.String("table", table), zap.String("path", path), zap.Error(err))
		return 0, l.classify(table, err)
	}

	l.store.logger.Info("bulk insert",
		zap.String("table", table), zap.Int64("rows", written), zap.String("path", path))
	return written, nil
}

// classify maps a bulk failure to the public error types
func (l *BulkLoader) classify(table string, err error) error {
	var schemaErr *SchemaMismatchError
	if errors.As(err, &schemaErr) {
		return err
	}
	if l.store.Dialect().isSchemaMismatch(err) {
		return &SchemaMismatchError{Table: table, Err: err}
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: "bulk insert", Table: table, Err: err}
}

// Truncate removes every row from table.
func (l *BulkLoader) Truncate(ctx context.Context, table string) error {
	stmt := l.store.Dialect().TruncateStatement(table)
	err := l.store.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			return err
		}
		return &StoreError{Op: "truncate", Table: table, Err: err}
	}

	l.store.logger.Info("table truncated", zap.String("table", table))
	return nil
}

// CreateTable creates table with one column per fixture column. Column types are
// inferred from the values: integers, reals, and text for everything else.
func (l *BulkLoader) CreateTable(ctx context.Context, table string, rs *RowSet) error {
	stmt := createTableStatement(l.store.Dialect(), table, rs)
	err := l.store.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			return err
		}
		return &StoreError{Op: "create table", Table: table, Err: err}
	}

	l.store.logger.Debug("table created", zap.String("table", table), zap.String("sql", stmt))
	return nil
}

// copyPostgres streams rs through COPY ... FROM STDIN in text format
func copyPostgres(ctx context.Context, conn *sql.Conn, table string, rs *RowSet) (int64, error) {
	columns := rs.Columns()
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	query := fmt.Sprintf("COPY %s (%s) FROM STDIN",
		pgx.Identifier(splitIdentifier(table)).Sanitize(), strings.Join(quoted, ", "))

	var buf bytes.Buffer
	for _, row := range rs.Rows() {
		for i, v := range row.Values() {
			if i > 0 {
				buf.WriteByte('\t')
			}
			if v.IsNull() {
				buf.WriteString(`\N`)
				continue
			}
			buf.WriteString(copyTextEscaper.Replace(v.Text()))
		}
		buf.WriteByte('\n')
	}

	var written int64
	err := conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T for COPY", driverConn)
		}
		tag, err := c.Conn().PgConn().CopyFrom(ctx, &buf, query)
		if err != nil {
			return err
		}
		written = tag.RowsAffected()
		return nil
	})
	return written, err
}

// copyTextEscaper escapes the characters that are special in COPY text format
var copyTextEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
)

// copySQLServer sends rs through the TDS bulk copy protocol. The destination columns
// are read with an empty query first, so unknown fixture columns are reported as
// *SchemaMismatchError before sending and the rest are mapped to their stored spelling.
func copySQLServer(ctx context.Context, conn *sql.Conn, table string, rs *RowSet) (int64, error) {
	escaped := DialectSQLServer.Escape(table)
	destination, err := probeColumnTypes(ctx, conn, escaped)
	if err != nil {
		return 0, err
	}

	columns := rs.Columns()
	names := make([]string, len(columns))
	types := make([]string, len(columns))
	for i, c := range columns {
		col, ok := destination[columnKey(c)]
		if !ok {
			return 0, &SchemaMismatchError{
				Table: table,
				Err:   fmt.Errorf("column %s does not exist in destination table %s", c, table),
			}
		}
		names[i] = col.Name()
		types[i] = col.DatabaseTypeName()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(escaped, mssql.BulkOptions{KeepNulls: true}, names...))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for r, row := range rs.Rows() {
		args := make([]any, len(columns))
		for i, v := range row.Values() {
			if args[i], err = bulkValue(v, types[i]); err != nil {
				return 0, fmt.Errorf("row %d, column %s: %w", r+1, columns[i], err)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, err
		}
	}

	// an Exec without arguments flushes the buffered rows
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// probeColumnTypes reads the destination column metadata with a query that returns no rows
func probeColumnTypes(ctx context.Context, conn *sql.Conn, escapedTable string) (map[string]*sql.ColumnType, error) {
	rows, err := conn.QueryContext(ctx, "SELECT * FROM "+escapedTable+" WHERE 1 = 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*sql.ColumnType, len(colTypes))
	for _, ct := range colTypes {
		byName[columnKey(ct.Name())] = ct
	}
	return byName, rows.Err()
}

// bulkValue converts fixture text to the Go type the bulk protocol accepts for a column type.
// Types not listed here accept their text form.
func bulkValue(v Value, databaseType string) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	text := v.Text()
	switch strings.ToUpper(databaseType) {
	case "INT", "BIGINT", "SMALLINT", "TINYINT":
		return strconv.ParseInt(text, 10, 64)
	case "FLOAT", "REAL":
		return strconv.ParseFloat(text, 64)
	case "BIT":
		return strconv.ParseBool(text)
	default:
		return text, nil
	}
}
