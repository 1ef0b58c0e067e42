package fixturesql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Grid holds a table keyed by the text of its first column. Each entry maps the
// remaining column names to their text, with null rendered as "". A key seen twice
// keeps the later row.
type Grid map[string]map[string]string

// QueryFetcher reads table contents back as row sets.
type QueryFetcher struct {
	store *Store
}

// NewQueryFetcher creates a fetcher bound to store.
func NewQueryFetcher(store *Store) *QueryFetcher {
	return &QueryFetcher{store: store}
}

// FetchAll returns every row of table, ordered by orderBy when it is not empty.
// Null cells stay null.
func (f *QueryFetcher) FetchAll(ctx context.Context, table, orderBy string) (*RowSet, error) {
	return f.query(ctx, table, f.store.Dialect().selectStatement(table, "", orderBy))
}

// FetchWhere returns the rows of table matching predicate. The predicate is embedded verbatim.
func (f *QueryFetcher) FetchWhere(ctx context.Context, table, predicate string) (*RowSet, error) {
	return f.query(ctx, table, f.store.Dialect().selectStatement(table, predicate, ""))
}

// FetchOne returns the single row of table matching predicate. Zero or several
// matches are reported as *PredicateCardinalityError.
func (f *QueryFetcher) FetchOne(ctx context.Context, table, predicate string) (Row, error) {
	rs, err := f.FetchWhere(ctx, table, predicate)
	if err != nil {
		return Row{}, err
	}
	if rs.Len() != 1 {
		return Row{}, &PredicateCardinalityError{Table: table, Predicate: predicate, Count: rs.Len()}
	}
	return rs.Row(0), nil
}

// FetchGrid returns every row of table keyed by its first column.
func (f *QueryFetcher) FetchGrid(ctx context.Context, table string) (Grid, error) {
	rs, err := f.FetchAll(ctx, table, "")
	if err != nil {
		return nil, err
	}

	columns := rs.Columns()
	grid := make(Grid, rs.Len())
	for _, row := range rs.Rows() {
		values := row.Values()
		if len(values) == 0 {
			continue
		}
		if values[0].IsNull() {
			return nil, &StoreError{Op: "fetch grid", Table: table, Err: ErrNullGridKey}
		}
		entry := make(map[string]string, len(columns)-1)
		for i := 1; i < len(columns); i++ {
			entry[columns[i]] = values[i].Text()
		}
		grid[values[0].Text()] = entry
	}
	return grid, nil
}

// query runs a SELECT on a scoped connection and materializes the result
func (f *QueryFetcher) query(ctx context.Context, table, query string) (*RowSet, error) {
	var rs *RowSet
	err := f.store.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		rs, err = scanRowSet(rows)
		return err
	})
	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) {
			return nil, err
		}
		return nil, &StoreError{Op: "fetch", Table: table, Err: err}
	}

	f.store.logger.Debug("fetched rows", zap.String("sql", query), zap.Int("rows", rs.Len()))
	return rs, nil
}

// scanRowSet reads every row of rows, rendering driver values as text
func scanRowSet(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	b, err := NewRowSetBuilder(columns...)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		values := make([]Value, len(columns))
		for i, v := range raw {
			values[i] = driverValue(v)
		}
		if err := b.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// driverValue renders a scanned driver value as fixture text
func driverValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case []byte:
		return NewValue(string(x))
	case string:
		return NewValue(x)
	case int64:
		return NewValue(strconv.FormatInt(x, 10))
	case int32:
		return NewValue(strconv.FormatInt(int64(x), 10))
	case int:
		return NewValue(strconv.Itoa(x))
	case float64:
		return NewValue(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return NewValue(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case bool:
		return NewValue(strconv.FormatBool(x))
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return NewValue(x.Format(time.DateOnly))
		}
		return NewValue(x.Format("2006-01-02 15:04:05.999999999"))
	default:
		return NewValue(fmt.Sprint(x))
	}
}
