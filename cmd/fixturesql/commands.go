package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/nao1215/fixturesql"
)

var (
	// ErrUnknownDumpFormat is returned when the dump target names no supported format
	ErrUnknownDumpFormat = errors.New("output file extension names no supported format")
	// ErrTableWithManyFixtures is returned when --table is combined with several fixtures
	ErrTableWithManyFixtures = errors.New("table override is ambiguous")
)

// openScenario loads the project configuration and registers the store teardown
func openScenario(ctx *Context) (*fixturesql.Scenario, error) {
	return fixturesql.NewScenario(ctx.Root, fixturesql.WithScenarioLogger(ctx.Logger))
}

// withScenario runs fn with a scenario that is closed afterwards
func withScenario(ctx *Context, fn func(*fixturesql.Scenario) error) (err error) {
	scenario, err := openScenario(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := scenario.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(scenario)
}

// ExecCmd represents the exec command
type ExecCmd struct {
	Script string `arg:"" help:"SQL script, relative to the project root"`
}

// Run executes the exec command
func (cmd *ExecCmd) Run(ctx *Context) error {
	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		result, err := s.ExecuteScript(context.Background(), cmd.Script)
		if err != nil {
			return err
		}
		color.Green("Executed %d statement(s), %d row(s) affected", result.Statements, result.RowsAffected)
		return nil
	})
}

// TruncateCmd represents the truncate command
type TruncateCmd struct {
	Table string `arg:"" help:"Table name, optionally schema-qualified"`
}

// Run executes the truncate command
func (cmd *TruncateCmd) Run(ctx *Context) error {
	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		if err := s.Truncate(context.Background(), cmd.Table); err != nil {
			return err
		}
		color.Green("Truncated %s", cmd.Table)
		return nil
	})
}

// LoadCmd represents the load command
type LoadCmd struct {
	Fixtures []string `arg:"" help:"Fixture files or directories (csv, tsv, ltsv, parquet, xlsx, optionally compressed)"`
	Table    string   `help:"Destination table for a single fixture; defaults to the fixture file name" short:"t"`
	Truncate bool     `help:"Truncate each table before loading"`
	Create   bool     `help:"Create each table from the fixture columns first"`
}

// Run executes the load command
func (cmd *LoadCmd) Run(ctx *Context) error {
	fixtures, err := fixturesql.CollectFixtures(ctx.Root, cmd.Fixtures...)
	if err != nil {
		return err
	}
	if cmd.Table != "" {
		if len(fixtures) != 1 {
			return fmt.Errorf("%w: --table needs exactly one fixture, got %d", ErrTableWithManyFixtures, len(fixtures))
		}
		fixtures[0].Table = cmd.Table
	}

	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		c := context.Background()
		for _, f := range fixtures {
			if err := cmd.load(c, ctx, s, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (cmd *LoadCmd) load(c context.Context, ctx *Context, s *fixturesql.Scenario, f fixturesql.FixtureFile) error {
	if cmd.Create {
		rs, err := fixturesql.NewLoader(ctx.Root).LoadFile(f.Path)
		if err != nil {
			return err
		}
		store, err := s.Store(c)
		if err != nil {
			return err
		}
		if err := fixturesql.NewBulkLoader(store).CreateTable(c, f.Table, rs); err != nil {
			return err
		}
	}
	if cmd.Truncate {
		if err := s.Truncate(c, f.Table); err != nil {
			return err
		}
	}

	n, err := s.LoadFixture(c, f.Path, f.Table)
	if err != nil {
		return err
	}
	color.Green("Loaded %d row(s) into %s", n, f.Table)
	return nil
}

// AssertTableCmd represents the assert-table command
type AssertTableCmd struct {
	Table    string `arg:"" help:"Table to check"`
	Expected string `arg:"" help:"Fixture file with the expected rows"`
	FailFast bool   `help:"Stop at the first mismatching cell"`
}

// Run executes the assert-table command
func (cmd *AssertTableCmd) Run(ctx *Context) error {
	expected, err := fixturesql.NewLoader(ctx.Root).LoadFile(cmd.Expected)
	if err != nil {
		return err
	}

	var opts []fixturesql.CompareOption
	if cmd.FailFast {
		opts = append(opts, fixturesql.WithFailFast())
	}
	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		if err := s.AssertTable(context.Background(), cmd.Table, expected, opts...); err != nil {
			return err
		}
		color.Green("%s matches %s (%d rows)", cmd.Table, cmd.Expected, expected.Len())
		return nil
	})
}

// AssertRowCmd represents the assert-row command
type AssertRowCmd struct {
	Table    string `arg:"" help:"Table to check"`
	Expected string `arg:"" help:"Fixture file with Column and Value columns"`
	Where    string `help:"Condition selecting exactly one row, embedded verbatim" required:""`
}

// Run executes the assert-row command
func (cmd *AssertRowCmd) Run(ctx *Context) error {
	expectations, err := fixturesql.NewLoader(ctx.Root).LoadFile(cmd.Expected)
	if err != nil {
		return err
	}
	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		if err := s.AssertRow(context.Background(), cmd.Table, cmd.Where, expectations); err != nil {
			return err
		}
		color.Green("Row of %s where %s matches %s", cmd.Table, cmd.Where, cmd.Expected)
		return nil
	})
}

// DumpCmd represents the dump command
type DumpCmd struct {
	Table   string `arg:"" help:"Table to read"`
	Output  string `arg:"" help:"Output file; format and compression follow the extension"`
	OrderBy string `help:"Column to order rows by"`
}

// Run executes the dump command
func (cmd *DumpCmd) Run(ctx *Context) error {
	opts, ok := fixturesql.DumpOptionsForPath(cmd.Output)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDumpFormat, cmd.Output)
	}

	return withScenario(ctx, func(s *fixturesql.Scenario) error {
		c := context.Background()
		store, err := s.Store(c)
		if err != nil {
			return err
		}
		rs, err := fixturesql.NewQueryFetcher(store).FetchAll(c, cmd.Table, cmd.OrderBy)
		if err != nil {
			return err
		}
		if err := fixturesql.DumpFile(fixturesql.ResolvePath(ctx.Root, cmd.Output), rs, opts); err != nil {
			return err
		}
		color.Green("Wrote %d row(s) of %s to %s", rs.Len(), cmd.Table, cmd.Output)
		return nil
	})
}

// JSONEqualCmd represents the json-equal command
type JSONEqualCmd struct {
	Expected string `arg:"" help:"File with the expected JSON document" type:"existingfile"`
	Actual   string `arg:"" help:"File with the actual JSON document" type:"existingfile"`
}

// Run executes the json-equal command
func (cmd *JSONEqualCmd) Run(_ *Context) error {
	expected, err := os.ReadFile(cmd.Expected)
	if err != nil {
		return err
	}
	actual, err := os.ReadFile(cmd.Actual)
	if err != nil {
		return err
	}
	if err := fixturesql.CompareJSON(string(expected), string(actual)); err != nil {
		return err
	}
	color.Green("JSON documents are equal")
	return nil
}
