package fixturesql

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createTodos = "CREATE TABLE Todos (Id INTEGER, Title TEXT, Done INTEGER, Note TEXT)"

func TestBulkLoaderInsert(t *testing.T) {
	t.Parallel()

	t.Run("appends rows with nulls", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		mustExec(t, store, createTodos, "INSERT INTO Todos VALUES (0, 'Existing', 1, NULL)")

		fixture, err := LoadCSV(strings.NewReader("Id,Title,Done,Note\n1,Buy milk,0,\n2,Walk dog,1,before noon\n"))
		require.NoError(t, err)

		n, err := NewBulkLoader(store).Insert(context.Background(), "Todos", fixture)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "Id")
		require.NoError(t, err)
		require.Equal(t, 3, rs.Len())
		assert.Equal(t, "Existing", rs.Row(0).Text("Title"))
		assert.Equal(t, "Buy milk", rs.Row(1).Text("Title"))

		note, _ := rs.Row(1).Get("Note")
		assert.True(t, note.IsNull())
		assert.Equal(t, "before noon", rs.Row(2).Text("Note"))
	})

	t.Run("fixture columns map by name in any order", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		mustExec(t, store, createTodos)

		fixture := mustRowSet(t, []string{"Title", "Id"}, []string{"Buy milk", "7"})
		_, err := NewBulkLoader(store).Insert(context.Background(), "Todos", fixture)
		require.NoError(t, err)

		row, err := NewQueryFetcher(store).FetchOne(context.Background(), "Todos", "Id = 7")
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", row.Text("Title"))
		done, _ := row.Get("Done")
		assert.True(t, done.IsNull())
	})

	t.Run("empty row set is a no-op", func(t *testing.T) {
		t.Parallel()

		// the table does not exist, so any statement would fail
		store := newSQLiteStore(t)
		n, err := NewBulkLoader(store).Insert(context.Background(), "Missing", mustRowSet(t, []string{"Id"}))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("rows span several chunks", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		mustExec(t, store, createTodos)

		b, err := NewRowSetBuilder("Id", "Title")
		require.NoError(t, err)
		for i := range 25 {
			require.NoError(t, b.AppendText(fmt.Sprint(i), fmt.Sprintf("Todo %d", i)))
		}

		n, err := NewBulkLoader(store, WithChunkSize(10)).Insert(context.Background(), "Todos", b.Build())
		require.NoError(t, err)
		assert.Equal(t, int64(25), n)

		rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "Id")
		require.NoError(t, err)
		require.Equal(t, 25, rs.Len())
		assert.Equal(t, "Todo 24", rs.Row(24).Text("Title"))
	})

	t.Run("unknown column is a schema mismatch", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		mustExec(t, store, createTodos)

		fixture := mustRowSet(t, []string{"Id", "Priority"}, []string{"1", "high"})
		_, err := NewBulkLoader(store).Insert(context.Background(), "Todos", fixture)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
		assert.ErrorIs(t, err, ErrStore)

		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "Todos", schemaErr.Table)
	})

	t.Run("missing table is a store error", func(t *testing.T) {
		t.Parallel()

		_, err := NewBulkLoader(newSQLiteStore(t)).Insert(context.Background(), "Missing", mustRowSet(t, []string{"Id"}, []string{"1"}))
		require.ErrorIs(t, err, ErrStore)
		assert.NotErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("failed load writes nothing", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		mustExec(t, store, "CREATE TABLE Todos (Id INTEGER NOT NULL, Title TEXT)")

		fixture, err := LoadCSV(strings.NewReader("Id,Title\n1,Buy milk\n,Walk dog\n"))
		require.NoError(t, err)
		_, err = NewBulkLoader(store, WithChunkSize(1)).Insert(context.Background(), "Todos", fixture)
		require.ErrorIs(t, err, ErrStore)

		rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "")
		require.NoError(t, err)
		assert.Equal(t, 0, rs.Len())
	})
}

func TestBulkLoaderTruncate(t *testing.T) {
	t.Parallel()

	store := newSQLiteStore(t)
	mustExec(t, store, createTodos, "INSERT INTO Todos (Id, Title) VALUES (1, 'Buy milk'), (2, 'Walk dog')")

	loader := NewBulkLoader(store)
	require.NoError(t, loader.Truncate(context.Background(), "Todos"))

	rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "")
	require.NoError(t, err)
	assert.True(t, rs.IsEmpty())

	err = loader.Truncate(context.Background(), "Missing")
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "truncate", storeErr.Op)
	assert.Equal(t, "Missing", storeErr.Table)
}

func TestBulkLoaderCreateTable(t *testing.T) {
	t.Parallel()

	store := newSQLiteStore(t)
	fixture, err := LoadCSV(strings.NewReader("Id,Title,Score\n1,Buy milk,1.5\n2,,2\n"))
	require.NoError(t, err)

	loader := NewBulkLoader(store)
	require.NoError(t, loader.CreateTable(context.Background(), "Todos", fixture))
	_, err = loader.Insert(context.Background(), "Todos", fixture)
	require.NoError(t, err)

	rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "Id")
	require.NoError(t, err)
	require.NoError(t, NewComparator().CompareRows("Todos", fixture, rs))

	err = loader.CreateTable(context.Background(), "Todos", fixture)
	require.ErrorIs(t, err, ErrStore)
}

func TestCreateTableStatement(t *testing.T) {
	t.Parallel()

	fixture := mustRowSet(t, []string{"Id", "Score", "Title"}, []string{"1", "1.5", "Buy milk"})

	assert.Equal(t,
		"CREATE TABLE [dbo].[Todos] ([Id] BIGINT, [Score] DOUBLE PRECISION, [Title] NVARCHAR(MAX))",
		createTableStatement(DialectSQLServer, "dbo.Todos", fixture))
	assert.Equal(t,
		`CREATE TABLE "Todos" ("Id" BIGINT, "Score" DOUBLE PRECISION, "Title" TEXT)`,
		createTableStatement(DialectPostgres, "Todos", fixture))
}

func TestChunkInserter(t *testing.T) {
	t.Parallel()

	t.Run("statement shape", func(t *testing.T) {
		t.Parallel()

		ci := newChunkInserter(DialectMySQL, NewChunkSize(10))
		assert.Equal(t, "INSERT INTO `Todos` (`Id`, `Title`) VALUES (?, ?), (?, ?)",
			ci.insertStatement("Todos", []string{"Id", "Title"}, 2))

		pg := newChunkInserter(DialectPostgres, NewChunkSize(10))
		assert.Equal(t, `INSERT INTO "Todos" ("Id", "Title") VALUES ($1, $2), ($3, $4)`,
			pg.insertStatement("Todos", []string{"Id", "Title"}, 2))
	})

	t.Run("chunk stays under the bind parameter limit", func(t *testing.T) {
		t.Parallel()

		sqlite := newChunkInserter(DialectSQLite, NewChunkSize(100000))
		assert.Equal(t, sqliteMaxVariables/10, sqlite.rowsPerChunk(10))

		small := newChunkInserter(DialectSQLite, NewChunkSize(50))
		assert.Equal(t, 50, small.rowsPerChunk(10))

		mysql := newChunkInserter(DialectMySQL, NewChunkSize(100000))
		assert.Equal(t, mysqlMaxPlaceholders/3, mysql.rowsPerChunk(3))
	})
}

func TestBulkValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   Value
		dbType  string
		want    any
		wantErr bool
	}{
		{name: "null", value: NullValue(), dbType: "INT", want: nil},
		{name: "int", value: NewValue("42"), dbType: "INT", want: int64(42)},
		{name: "bigint lower case", value: NewValue("-7"), dbType: "bigint", want: int64(-7)},
		{name: "float", value: NewValue("1.25"), dbType: "FLOAT", want: 1.25},
		{name: "bit", value: NewValue("1"), dbType: "BIT", want: true},
		{name: "decimal stays text", value: NewValue("10.50"), dbType: "DECIMAL", want: "10.50"},
		{name: "nvarchar", value: NewValue("Buy milk"), dbType: "NVARCHAR", want: "Buy milk"},
		{name: "bad int", value: NewValue("many"), dbType: "INT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := bulkValue(tt.value, tt.dbType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
