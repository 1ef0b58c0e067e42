package fixturesql

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// DefaultBatchSeparator is the T-SQL batch separator.
const DefaultBatchSeparator = "GO"

// batchSeparatorPattern matches a line holding only the separator, ignoring case and surrounding blanks.
func batchSeparatorPattern(separator string) *regexp.Regexp {
	if strings.TrimSpace(separator) == "" {
		separator = DefaultBatchSeparator
	}
	return regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(strings.TrimSpace(separator)) + `[ \t]*\r?$`)
}

// SplitBatches splits script on separator lines and returns the non-empty trimmed statements in order.
// An empty separator means DefaultBatchSeparator.
func SplitBatches(script, separator string) []string {
	segments := batchSeparatorPattern(separator).Split(script, -1)
	statements := make([]string, 0, len(segments))
	for _, seg := range segments {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}

// ExecutionResult summarizes a batch run.
type ExecutionResult struct {
	Statements   int
	RowsAffected int64
}

// BatchExecutor runs SQL scripts statement by statement.
type BatchExecutor struct {
	store     *Store
	separator string
	root      string
}

// BatchOption configures a BatchExecutor.
type BatchOption func(*BatchExecutor)

// WithBatchSeparator sets the separator token.
func WithBatchSeparator(separator string) BatchOption {
	return func(e *BatchExecutor) {
		if strings.TrimSpace(separator) != "" {
			e.separator = strings.TrimSpace(separator)
		}
	}
}

// WithProjectRoot sets the directory relative script paths resolve against.
func WithProjectRoot(root string) BatchOption {
	return func(e *BatchExecutor) {
		e.root = root
	}
}

// NewBatchExecutor creates an executor bound to store.
func NewBatchExecutor(store *Store, opts ...BatchOption) *BatchExecutor {
	e := &BatchExecutor{
		store:     store,
		separator: DefaultBatchSeparator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute splits script and runs each statement once, in order. The first
// failure stops the script and is reported as a *StatementError; statements
// already run are not rolled back.
func (e *BatchExecutor) Execute(ctx context.Context, script string) (ExecutionResult, error) {
	statements := SplitBatches(script, e.separator)
	result := ExecutionResult{}
	if len(statements) == 0 {
		return result, nil
	}

	logger := e.store.logger
	err := e.store.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for i, stmt := range statements {
			logger.Debug("executing batch statement", zap.Int("index", i), zap.String("sql", stmt))

			res, err := conn.ExecContext(ctx, stmt)
			if err != nil {
				logger.Info("batch statement failed", zap.Int("index", i), zap.Error(err))
				return &StatementError{Index: i, Statement: stmt, Err: err}
			}
			result.Statements++
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				result.RowsAffected += n
			}
		}
		return nil
	})
	return result, err
}

// ExecuteFile reads a script from path and executes it.
func (e *BatchExecutor) ExecuteFile(ctx context.Context, path string) (ExecutionResult, error) {
	fullPath := ResolvePath(e.root, path)
	data, err := os.ReadFile(fullPath) //nolint:gosec // Script paths are authored by the test writer
	if err != nil {
		ec := NewErrorContext("execute script", fullPath)
		if os.IsNotExist(err) {
			return ExecutionResult{}, ec.Error(ErrFileNotFound)
		}
		return ExecutionResult{}, ec.Error(err)
	}
	return e.Execute(ctx, string(data))
}

// ResolvePath returns path unchanged when absolute, otherwise joined to root.
// An empty root means the current working directory.
func ResolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	return filepath.Join(root, path)
}
