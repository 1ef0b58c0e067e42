package fixturesql

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// renderedTableName labels rendered page tables in assertion errors
const renderedTableName = "rendered table"

// Scenario bundles the collaborators of one test scenario: configuration, the store,
// and the last API response. It is not safe for concurrent use.
type Scenario struct {
	root       string
	dbConfig   DBConfig
	webConfig  WebConfig
	logger     *zap.Logger
	httpClient *http.Client

	openStore sync.Once
	store     *Store
	storeErr  error

	api      *APIClient
	response *APIResponse

	cleanups []func() error
}

// ScenarioOption configures a Scenario.
type ScenarioOption func(*Scenario)

// WithScenarioLogger sets the logger handed to the store and the API client.
func WithScenarioLogger(logger *zap.Logger) ScenarioOption {
	return func(s *Scenario) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScenarioStore uses an already opened store instead of opening one from db.properties.
// The scenario does not close it.
func WithScenarioStore(store *Store) ScenarioOption {
	return func(s *Scenario) {
		s.openStore.Do(func() { s.store = store })
	}
}

// WithScenarioHTTPClient sets the HTTP client used for API requests.
func WithScenarioHTTPClient(client *http.Client) ScenarioOption {
	return func(s *Scenario) {
		s.httpClient = client
	}
}

// NewScenario loads the configuration under root. The store is opened on first use.
func NewScenario(root string, opts ...ScenarioOption) (*Scenario, error) {
	dbConfig, err := LoadDBConfig(root)
	if err != nil {
		return nil, err
	}
	webConfig, err := LoadWebConfig(root)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		root:      root,
		dbConfig:  dbConfig,
		webConfig: webConfig,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.api = NewAPIClient(webConfig, WithHTTPClient(s.httpClient), WithAPILogger(s.logger))
	return s, nil
}

// OnClose registers fn to run when the scenario closes. Hooks run in reverse order.
func (s *Scenario) OnClose(fn func() error) {
	s.cleanups = append(s.cleanups, fn)
}

// Close runs the teardown hooks in reverse registration order and reports every failure.
func (s *Scenario) Close() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	s.response = nil
	return errors.Join(errs...)
}

// DBConfig returns the loaded store configuration.
func (s *Scenario) DBConfig() DBConfig {
	return s.dbConfig
}

// WebConfig returns the loaded web configuration.
func (s *Scenario) WebConfig() WebConfig {
	return s.webConfig
}

// Store returns the scenario's store, opening it on first use.
func (s *Scenario) Store(ctx context.Context) (*Store, error) {
	s.openStore.Do(func() {
		s.store, s.storeErr = OpenStore(ctx, s.dbConfig, WithLogger(s.logger))
		if s.storeErr == nil {
			s.OnClose(s.store.Close)
		}
	})
	return s.store, s.storeErr
}

// ExecuteScript runs the SQL script at path, relative to the project root.
func (s *Scenario) ExecuteScript(ctx context.Context, path string) (ExecutionResult, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}
	executor := NewBatchExecutor(store,
		WithBatchSeparator(s.dbConfig.BatchSeparator), WithProjectRoot(s.root))
	return executor.ExecuteFile(ctx, path)
}

// Truncate removes every row from table.
func (s *Scenario) Truncate(ctx context.Context, table string) error {
	store, err := s.Store(ctx)
	if err != nil {
		return err
	}
	return NewBulkLoader(store).Truncate(ctx, table)
}

// LoadFixture loads the fixture file at path and appends its rows to table.
func (s *Scenario) LoadFixture(ctx context.Context, path, table string) (int64, error) {
	rs, err := NewLoader(s.root).LoadFile(path)
	if err != nil {
		return 0, err
	}
	store, err := s.Store(ctx)
	if err != nil {
		return 0, err
	}
	return NewBulkLoader(store).Insert(ctx, table, rs)
}

// LoadFixtures loads every fixture CollectFixtures finds under paths into the table named
// after its file, optionally truncating each table first. It returns the total row count.
func (s *Scenario) LoadFixtures(ctx context.Context, truncate bool, paths ...string) (int64, error) {
	fixtures, err := CollectFixtures(s.root, paths...)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range fixtures {
		if truncate {
			if err := s.Truncate(ctx, f.Table); err != nil {
				return total, err
			}
		}
		n, err := s.LoadFixture(ctx, f.Path, f.Table)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// AssertTable checks table against expected. Rows are fetched ordered by the first
// expected column, the row count must match, and only expected columns are compared.
func (s *Scenario) AssertTable(ctx context.Context, table string, expected *RowSet, opts ...CompareOption) error {
	store, err := s.Store(ctx)
	if err != nil {
		return err
	}

	orderBy := ""
	if columns := expected.Columns(); len(columns) > 0 {
		orderBy = columns[0]
	}
	actual, err := NewQueryFetcher(store).FetchAll(ctx, table, orderBy)
	if err != nil {
		return err
	}
	return NewComparator(opts...).CompareRows(table, expected, actual)
}

// AssertRow checks the single row of table matching predicate against a Column/Value
// expectation table. The expectation shape is validated before the store is queried.
func (s *Scenario) AssertRow(ctx context.Context, table, predicate string, expectations *RowSet) error {
	parsed, err := ParseExpectations(expectations)
	if err != nil {
		return err
	}
	store, err := s.Store(ctx)
	if err != nil {
		return err
	}
	row, err := NewQueryFetcher(store).FetchOne(ctx, table, predicate)
	if err != nil {
		return err
	}
	return NewComparator().CompareExpectations(table, parsed, row)
}

// AssertRenderedTable checks a rendered table against expected. Expected columns the
// page does not show and blank expected cells are skipped.
func (s *Scenario) AssertRenderedTable(ctx context.Context, src TableSource, expected *RowSet) error {
	actual, err := Extract(ctx, src, DefaultHeaderLocator, DefaultRowLocator)
	if err != nil {
		return err
	}
	return NewComparator(WithBlankWildcard()).CompareRendered(renderedTableName, expected, actual)
}

// AssertRenderedCell checks one cell of a rendered table, by header and 1-based row.
func (s *Scenario) AssertRenderedCell(ctx context.Context, src TableSource, column string, row int, expected string) error {
	actual, err := CellText(ctx, src, column, row)
	if err != nil {
		return err
	}
	if actual != strings.TrimSpace(expected) {
		return &ValueMismatchError{Table: renderedTableName, Column: column, Expected: strings.TrimSpace(expected), Actual: actual}
	}
	return nil
}

// AssertURL checks the current page URL against expected, resolved against base_url when one is configured.
func (s *Scenario) AssertURL(current, expected string) error {
	want, err := ResolveURL(s.webConfig.BaseURL, expected)
	if err != nil {
		return err
	}
	if current != want {
		return &ValueMismatchError{Table: "page", Column: "url", Expected: want, Actual: current}
	}
	return nil
}

// Get sends a GET request relative to base_url and records the response for later assertions.
func (s *Scenario) Get(ctx context.Context, path string) (*APIResponse, error) {
	resp, err := s.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	s.response = resp
	return resp, nil
}

// LastResponse returns the response of the latest request.
func (s *Scenario) LastResponse() (*APIResponse, error) {
	if s.response == nil {
		return nil, ErrNoResponse
	}
	return s.response, nil
}

// AssertStatus checks the status code of the latest response.
func (s *Scenario) AssertStatus(code int) error {
	resp, err := s.LastResponse()
	if err != nil {
		return err
	}
	if resp.StatusCode != code {
		return &StatusMismatchError{Expected: code, Actual: resp.StatusCode}
	}
	return nil
}

// AssertJSONArrayLength checks that the latest response body is a JSON array of n elements.
func (s *Scenario) AssertJSONArrayLength(n int) error {
	resp, err := s.LastResponse()
	if err != nil {
		return err
	}
	length, err := JSONArrayLength(string(resp.Body))
	if err != nil {
		return err
	}
	if length != n {
		return &LengthMismatchError{Expected: n, Actual: length}
	}
	return nil
}

// AssertJSON checks that the latest response body equals expected after normalization.
func (s *Scenario) AssertJSON(expected string) error {
	resp, err := s.LastResponse()
	if err != nil {
		return err
	}
	return CompareJSON(expected, string(resp.Body))
}
