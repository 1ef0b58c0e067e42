package fixturesql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
)

// Dialect identifies the SQL flavour of the backing store.
type Dialect int

const (
	// DialectSQLServer is Microsoft SQL Server (go-mssqldb)
	DialectSQLServer Dialect = iota
	// DialectSQLite is SQLite (modernc.org/sqlite)
	DialectSQLite
	// DialectPostgres is PostgreSQL (pgx)
	DialectPostgres
	// DialectMySQL is MySQL (go-sql-driver/mysql)
	DialectMySQL
)

// Driver names registered with database/sql
const (
	driverSQLServer = "sqlserver"
	driverSQLite    = "sqlite"
	driverPostgres  = "pgx"
	driverMySQL     = "mysql"
)

// Store error codes that signal a fixture column missing from the destination table
const (
	pgUndefinedColumn  = "42703"
	mysqlBadFieldError = 1054
	mssqlInvalidColumn = 207
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driverName string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driverName)) {
	case "sqlserver", "mssql", "azuresql":
		return DialectSQLServer, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "pgx", "pgx/v5", "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driverName)
	}
}

// String returns the dialect name
func (d Dialect) String() string {
	switch d {
	case DialectSQLServer:
		return "sqlserver"
	case DialectSQLite:
		return "sqlite"
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

// DriverName returns the database/sql driver name registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectSQLite:
		return driverSQLite
	case DialectPostgres:
		return driverPostgres
	case DialectMySQL:
		return driverMySQL
	default:
		return driverSQLServer
	}
}

// Escape quotes each dot-separated segment of identifier in the dialect's style.
// SQLite accepts the SQL Server bracket form, so both share it.
func (d Dialect) Escape(identifier string) string {
	open, closing := "[", "]"
	switch d {
	case DialectPostgres:
		open, closing = `"`, `"`
	case DialectMySQL:
		open, closing = "`", "`"
	}

	segments := splitIdentifier(identifier)
	for i, s := range segments {
		segments[i] = quoteSegment(s, open, closing)
	}
	return strings.Join(segments, ".")
}

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case DialectPostgres:
		return "$" + strconv.Itoa(n)
	case DialectSQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// TruncateStatement returns the statement that empties table.
func (d Dialect) TruncateStatement(table string) string {
	if d == DialectSQLite {
		return "DELETE FROM " + d.Escape(table)
	}
	return "TRUNCATE TABLE " + d.Escape(table)
}

// columnTypeName maps an inferred fixture column type to a column definition type.
func (d Dialect) columnTypeName(ct columnType) string {
	switch ct {
	case columnTypeInteger:
		return "BIGINT"
	case columnTypeReal:
		return "DOUBLE PRECISION"
	default:
		if d == DialectSQLServer {
			return "NVARCHAR(MAX)"
		}
		return sqlTypeText
	}
}

// selectStatement builds SELECT * FROM <table> [WHERE predicate] [ORDER BY column].
// predicate is embedded verbatim.
func (d Dialect) selectStatement(table, predicate, orderBy string) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(d.Escape(table))
	if strings.TrimSpace(predicate) != "" {
		b.WriteString(" WHERE ")
		b.WriteString(predicate)
	}
	if strings.TrimSpace(orderBy) != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(d.Escape(orderBy))
	}
	return b.String()
}

// isSchemaMismatch reports whether err means a fixture column is missing from the destination.
func (d Dialect) isSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedColumn
	}
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlBadFieldError
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlInvalidColumn
	}

	msg := strings.ToLower(err.Error())
	switch d {
	case DialectSQLite:
		return strings.Contains(msg, "has no column named") || strings.Contains(msg, "no such column")
	case DialectSQLServer:
		// raised client-side by the bulk copy column lookup
		return strings.Contains(msg, "does not exist in destination table")
	default:
		return false
	}
}
