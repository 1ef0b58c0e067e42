package fixturesql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Bind parameter ceilings per statement
const (
	sqliteMaxVariables   = 32766
	mysqlMaxPlaceholders = 65535
)

// chunkInserter writes a row set with multi-row INSERT statements, one chunk at a time.
// It serves dialects without a native bulk protocol.
type chunkInserter struct {
	dialect   Dialect
	chunkSize ChunkSize
}

// newChunkInserter creates a chunk inserter
func newChunkInserter(dialect Dialect, chunkSize ChunkSize) *chunkInserter {
	return &chunkInserter{dialect: dialect, chunkSize: chunkSize}
}

// rowsPerChunk caps the chunk so one statement stays under the dialect's bind parameter limit
func (ci *chunkInserter) rowsPerChunk(columns int) int {
	rows := NewChunkSize(ci.chunkSize.Int()).Int()
	limit := mysqlMaxPlaceholders
	if ci.dialect == DialectSQLite {
		limit = sqliteMaxVariables
	}
	if columns > 0 && rows*columns > limit {
		rows = max(limit/columns, MinChunkSize)
	}
	return rows
}

// insert writes every row of rs in one transaction on conn and returns the rows written
func (ci *chunkInserter) insert(ctx context.Context, conn *sql.Conn, table string, rs *RowSet) (int64, error) {
	columns := rs.Columns()
	perChunk := ci.rowsPerChunk(len(columns))

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	// full-size chunks reuse one prepared statement; the tail gets its own
	var (
		stmt     *sql.Stmt
		stmtRows int
		total    int64
	)
	defer func() {
		if stmt != nil {
			_ = stmt.Close()
		}
	}()

	rows := rs.Rows()
	for start := 0; start < len(rows); start += perChunk {
		chunk := rows[start:min(start+perChunk, len(rows))]
		if stmt == nil || stmtRows != len(chunk) {
			if stmt != nil {
				_ = stmt.Close()
			}
			stmt, err = ci.prepareInsertStatement(ctx, tx, table, columns, len(chunk))
			if err != nil {
				stmt = nil
				return 0, err
			}
			stmtRows = len(chunk)
		}

		n, err := ci.insertChunkData(ctx, stmt, chunk)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// prepareInsertStatement prepares INSERT INTO t (cols) VALUES (...), (...) for rowCount rows
func (ci *chunkInserter) prepareInsertStatement(ctx context.Context, tx *sql.Tx, table string, columns []string, rowCount int) (*sql.Stmt, error) {
	return tx.PrepareContext(ctx, ci.insertStatement(table, columns, rowCount))
}

func (ci *chunkInserter) insertStatement(table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ci.dialect.Escape(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", ci.dialect.Escape(table), strings.Join(quoted, ", "))
	n := 1
	for r := range rowCount {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ci.dialect.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// insertChunkData binds one chunk's values; null becomes SQL NULL
func (ci *chunkInserter) insertChunkData(ctx context.Context, stmt *sql.Stmt, chunk []Row) (int64, error) {
	args := make([]any, 0, len(chunk)*len(chunk[0].Values()))
	for _, row := range chunk {
		for _, v := range row.Values() {
			if v.IsNull() {
				args = append(args, nil)
				continue
			}
			args = append(args, v.Text())
		}
	}

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(chunk)), nil //nolint:nilerr // Some drivers do not report affected rows
	}
	return n, nil
}

// createTableStatement builds CREATE TABLE from the column types inferred from rs
func createTableStatement(dialect Dialect, table string, rs *RowSet) string {
	infos := inferColumnsInfo(rs)
	columns := make([]string, 0, len(infos))
	for _, col := range infos {
		columns = append(columns, fmt.Sprintf("%s %s", dialect.Escape(col.Name), dialect.columnTypeName(col.Type)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", dialect.Escape(table), strings.Join(columns, ", "))
}
