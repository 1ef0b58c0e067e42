package fixturesql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func skipIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// exerciseStore runs the bulk load, fetch, and truncate cycle against a live store.
// createTodos must create Todos(Id, Title, Done, Note) with those exact column names.
func exerciseStore(t *testing.T, cfg DBConfig, createTodos string) {
	t.Helper()

	ctx := t.Context()
	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = NewBatchExecutor(store).Execute(ctx, createTodos)
	require.NoError(t, err)

	b, err := NewRowSetBuilder("Id", "Title", "Done", "Note")
	require.NoError(t, err)
	require.NoError(t, b.Append(NewValue("1"), NewValue("Buy milk"), NewValue("0"), NullValue()))
	require.NoError(t, b.AppendText("2", "Walk\tdog", "1", "after lunch"))
	require.NoError(t, b.AppendText("3", `C:\temp`, "0", "line one\nline two"))
	fixture := b.Build()
	loader := NewBulkLoader(store)

	t.Run("insert and compare", func(t *testing.T) {
		n, err := loader.Insert(ctx, "Todos", fixture)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		actual, err := NewQueryFetcher(store).FetchAll(ctx, "Todos", "Id")
		require.NoError(t, err)
		assert.NoError(t, NewComparator().CompareRows("Todos", fixture, actual))

		note, ok := actual.Row(0).Get("note")
		require.True(t, ok)
		assert.True(t, note.IsNull())
	})

	t.Run("single row", func(t *testing.T) {
		row, err := NewQueryFetcher(store).FetchOne(ctx, "Todos", store.Dialect().Escape("Id")+" = 2")
		require.NoError(t, err)
		assert.Equal(t, "after lunch", row.Text("Note"))
	})

	t.Run("unknown column", func(t *testing.T) {
		bad := mustRowSet(t, []string{"Id", "Priority"}, []string{"4", "high"})
		_, err := loader.Insert(ctx, "Todos", bad)

		var schemaErr *SchemaMismatchError
		assert.True(t, errors.As(err, &schemaErr), "got %v", err)
	})

	t.Run("truncate", func(t *testing.T) {
		require.NoError(t, loader.Truncate(ctx, "Todos"))
		actual, err := NewQueryFetcher(store).FetchAll(ctx, "Todos", "")
		require.NoError(t, err)
		assert.Equal(t, 0, actual.Len())
	})
}

func TestPostgresIntegration(t *testing.T) {
	skipIntegration(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("fixtures"),
		postgres.WithUsername("fixtures"),
		postgres.WithPassword("fixtures"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	exerciseStore(t, DBConfig{Driver: "postgres", ConnectionString: connStr, CommandTimeout: time.Minute},
		`CREATE TABLE "Todos" ("Id" integer, "Title" text, "Done" integer, "Note" text)`)
}

func TestMySQLIntegration(t *testing.T) {
	skipIntegration(t)

	ctx := context.Background()
	ctr, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("fixtures"),
		mysql.WithUsername("fixtures"),
		mysql.WithPassword("fixtures"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	exerciseStore(t, DBConfig{Driver: "mysql", ConnectionString: connStr, CommandTimeout: time.Minute},
		"CREATE TABLE Todos (Id INT, Title VARCHAR(100), Done INT, Note VARCHAR(100))")
}

func TestSQLServerIntegration(t *testing.T) {
	skipIntegration(t)

	ctx := context.Background()
	ctr, err := mssql.Run(ctx, "mcr.microsoft.com/mssql/server:2022-latest",
		mssql.WithAcceptEULA(),
		mssql.WithPassword("Fixtures!2024"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	exerciseStore(t, DBConfig{Driver: "sqlserver", ConnectionString: connStr, CommandTimeout: time.Minute},
		"CREATE TABLE dbo.Todos (Id INT, Title NVARCHAR(100), Done INT, Note NVARCHAR(100))")
}
