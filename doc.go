// Package fixturesql loads tabular fixtures into a relational database and
// asserts on what the database, a rendered HTML table, or an HTTP API returns.
//
// It covers the data side of acceptance tests: run setup scripts, truncate and
// bulk-load tables from CSV, TSV, LTSV, Parquet, and Excel (XLSX) fixtures, then
// compare the stored rows with an expected fixture and render any difference as
// a readable diff.
//
// # Features
//
//   - SQL script execution split on "GO"-style batch separator lines
//   - Bulk insert through COPY (PostgreSQL), bulk copy (SQL Server), or chunked
//     multi-row INSERT (SQLite, MySQL)
//   - Fixture files in CSV, TSV, LTSV, Parquet, and XLSX, optionally compressed
//     with gzip, bzip2, xz, or zstandard
//   - Positional table comparison, single-row Column/Value checks, and
//     order-insensitive JSON comparison of normalized documents
//   - Row extraction from rendered HTML tables through CSS selectors
//   - Layered configuration from env/default and env/local property files
//
// # Basic Usage
//
// A Scenario bundles configuration, the store, and the last API response:
//
//	scenario, err := fixturesql.NewScenario(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scenario.Close()
//
//	if err := scenario.Truncate(ctx, "dbo.Todos"); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := scenario.LoadFixture(ctx, "testdata/todos.csv", "dbo.Todos"); err != nil {
//	    log.Fatal(err)
//	}
//
//	expected, err := fixturesql.NewLoader(".").LoadFile("testdata/todos_expected.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := scenario.AssertTable(ctx, "dbo.Todos", expected); err != nil {
//	    fmt.Println(fixturesql.RenderFailure(err))
//	}
//
// # Cell Values
//
// Every cell is either text or null. Fixture cells are trimmed and an empty cell
// is null. Comparisons treat null and a missing column as the empty string.
// Column names are looked up case-insensitively after trimming.
//
// # Configuration
//
// db.properties and web.properties are read from env/default and then env/local
// under the project root; later layers win. Environment variables override both,
// named after the key with a DB_ or WEB_ prefix (DB_CONNECTION_STRING, WEB_BASE_URL).
//
// # Trust
//
// Identifiers are escaped, but SQL scripts and WHERE conditions are embedded as
// written. They must come from the test author, never from untrusted input.
package fixturesql
