package fixturesql

import (
	"errors"
	"fmt"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{name: "plain name", identifier: "Todos", want: "[Todos]"},
		{name: "schema qualified", identifier: "dbo.Todos", want: "[dbo].[Todos]"},
		{name: "already bracketed", identifier: "[dbo].[Todos]", want: "[dbo].[Todos]"},
		{name: "surrounding blanks", identifier: " dbo . Todos ", want: "[dbo].[Todos]"},
		{name: "embedded closing bracket", identifier: "odd]name", want: "[odd]]name]"},
		{name: "space inside name", identifier: "Order Details", want: "[Order Details]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Escape(tt.identifier))
		})
	}
}

func TestDialectEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{dialect: DialectSQLServer, want: "[app].[Todos]"},
		{dialect: DialectSQLite, want: "[app].[Todos]"},
		{dialect: DialectPostgres, want: `"app"."Todos"`},
		{dialect: DialectMySQL, want: "`app`.`Todos`"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.dialect.Escape(`"app".Todos`))
		})
	}

	assert.Equal(t, `"a""b"`, DialectPostgres.Escape(`a"b`))
	assert.Equal(t, "`a``b`", DialectMySQL.Escape("a`b"))
}

func TestDialectForDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver  string
		want    Dialect
		wantErr bool
	}{
		{driver: "sqlserver", want: DialectSQLServer},
		{driver: "MSSQL", want: DialectSQLServer},
		{driver: "sqlite", want: DialectSQLite},
		{driver: "sqlite3", want: DialectSQLite},
		{driver: "pgx", want: DialectPostgres},
		{driver: "postgres", want: DialectPostgres},
		{driver: " mysql ", want: DialectMySQL},
		{driver: "oracle", wantErr: true},
		{driver: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("driver %q", tt.driver), func(t *testing.T) {
			t.Parallel()

			got, err := DialectForDriver(tt.driver)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedDriver)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialectStatements(t *testing.T) {
	t.Parallel()

	t.Run("placeholders", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "@p3", DialectSQLServer.Placeholder(3))
		assert.Equal(t, "$3", DialectPostgres.Placeholder(3))
		assert.Equal(t, "?", DialectSQLite.Placeholder(3))
		assert.Equal(t, "?", DialectMySQL.Placeholder(3))
	})

	t.Run("truncate", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "TRUNCATE TABLE [dbo].[Todos]", DialectSQLServer.TruncateStatement("dbo.Todos"))
		assert.Equal(t, "DELETE FROM [Todos]", DialectSQLite.TruncateStatement("Todos"))
		assert.Equal(t, `TRUNCATE TABLE "Todos"`, DialectPostgres.TruncateStatement("Todos"))
	})

	t.Run("select", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "SELECT * FROM [Todos]", DialectSQLServer.selectStatement("Todos", "", ""))
		assert.Equal(t, "SELECT * FROM [Todos] WHERE Id = 2",
			DialectSQLServer.selectStatement("Todos", "Id = 2", ""))
		assert.Equal(t, `SELECT * FROM "Todos" ORDER BY "Id"`,
			DialectPostgres.selectStatement("Todos", "  ", "Id"))
	})

	t.Run("driver names", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "sqlserver", DialectSQLServer.DriverName())
		assert.Equal(t, "sqlite", DialectSQLite.DriverName())
		assert.Equal(t, "pgx", DialectPostgres.DriverName())
		assert.Equal(t, "mysql", DialectMySQL.DriverName())
	})
}

func TestDialectIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{name: "nil", dialect: DialectSQLite, err: nil, want: false},
		{name: "postgres undefined column", dialect: DialectPostgres, err: &pgconn.PgError{Code: "42703"}, want: true},
		{name: "postgres other code", dialect: DialectPostgres, err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "mysql bad field", dialect: DialectMySQL, err: &mysqldrv.MySQLError{Number: 1054}, want: true},
		{name: "mssql invalid column", dialect: DialectSQLServer, err: mssql.Error{Number: 207}, want: true},
		{
			name:    "wrapped sqlite message",
			dialect: DialectSQLite,
			err:     fmt.Errorf("failed to insert records: %w", errors.New("table Todos has no column named Priority")),
			want:    true,
		},
		{name: "sqlite constraint", dialect: DialectSQLite, err: errors.New("UNIQUE constraint failed: Todos.Id"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.dialect.isSchemaMismatch(tt.err))
		})
	}
}
