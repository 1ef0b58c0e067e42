package fixturesql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		script    string
		separator string
		want      []string
	}{
		{
			name:   "separator lines split statements",
			script: "CREATE TABLE Todos (Id INT)\nGO\nINSERT INTO Todos VALUES (1)\nGO\n",
			want:   []string{"CREATE TABLE Todos (Id INT)", "INSERT INTO Todos VALUES (1)"},
		},
		{
			name:   "separator is case-insensitive and may be indented",
			script: "SELECT 1\n  go  \nSELECT 2\r\nGo\r\nSELECT 3",
			want:   []string{"SELECT 1", "SELECT 2", "SELECT 3"},
		},
		{
			name:   "separator inside a line does not split",
			script: "SELECT 'GO' AS word\nGO",
			want:   []string{"SELECT 'GO' AS word"},
		},
		{
			name:   "blank segments are dropped",
			script: "GO\n\nGO\nSELECT 1\nGO\n   \nGO",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "script without separator is one statement",
			script: "  SELECT 1  ",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "empty script",
			script: "",
			want:   []string{},
		},
		{
			name:      "custom separator",
			script:    "SELECT 1\n;;\nSELECT 2\nGO",
			separator: ";;",
			want:      []string{"SELECT 1", "SELECT 2\nGO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitBatches(tt.script, tt.separator))
		})
	}
}

func TestBatchExecutorExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs every statement in order", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		script := `CREATE TABLE Todos (Id INTEGER, Title TEXT)
GO
INSERT INTO Todos VALUES (1, 'Buy milk'), (2, 'Walk dog')
GO
UPDATE Todos SET Title = 'Buy oat milk' WHERE Id = 1
GO`
		result, err := NewBatchExecutor(store).Execute(context.Background(), script)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Statements)
		assert.Equal(t, int64(3), result.RowsAffected)

		rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "Id")
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", rs.Row(0).Text("Title"))
	})

	t.Run("stops at the first failing statement", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		script := "CREATE TABLE Todos (Id INTEGER)\nGO\nINSERT INTO Missing VALUES (1)\nGO\nINSERT INTO Todos VALUES (1)"
		result, err := NewBatchExecutor(store).Execute(context.Background(), script)
		require.Error(t, err)

		var stmtErr *StatementError
		require.ErrorAs(t, err, &stmtErr)
		assert.Equal(t, 1, stmtErr.Index)
		assert.Equal(t, "INSERT INTO Missing VALUES (1)", stmtErr.Statement)
		assert.ErrorIs(t, err, ErrStore)
		assert.Equal(t, 1, result.Statements)

		// the statement before the failure stays applied, the one after never ran
		rs, err := NewQueryFetcher(store).FetchAll(context.Background(), "Todos", "")
		require.NoError(t, err)
		assert.Equal(t, 0, rs.Len())
	})

	t.Run("empty script touches nothing", func(t *testing.T) {
		t.Parallel()

		result, err := NewBatchExecutor(newSQLiteStore(t)).Execute(context.Background(), "\nGO\n")
		require.NoError(t, err)
		assert.Equal(t, ExecutionResult{}, result)
	})

	t.Run("custom separator option", func(t *testing.T) {
		t.Parallel()

		store := newSQLiteStore(t)
		executor := NewBatchExecutor(store, WithBatchSeparator("END"))
		result, err := executor.Execute(context.Background(), "CREATE TABLE A (Id INTEGER)\nend\nCREATE TABLE B (Id INTEGER)")
		require.NoError(t, err)
		assert.Equal(t, 2, result.Statements)
	})
}

func TestBatchExecutorExecuteFile(t *testing.T) {
	t.Parallel()

	t.Run("relative path resolves against the project root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeFile(t, root, filepath.Join("sql", "setup.sql"), "CREATE TABLE Todos (Id INTEGER)\nGO\n")

		store := newSQLiteStore(t)
		result, err := NewBatchExecutor(store, WithProjectRoot(root)).ExecuteFile(context.Background(), "sql/setup.sql")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Statements)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewBatchExecutor(newSQLiteStore(t), WithProjectRoot(t.TempDir())).
			ExecuteFile(context.Background(), "missing.sql")
		require.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "todos.csv")
	assert.Equal(t, abs, ResolvePath("/ignored", abs))
	assert.Equal(t, filepath.Join("/project", "testdata", "todos.csv"), ResolvePath("/project", "testdata/todos.csv"))
}
