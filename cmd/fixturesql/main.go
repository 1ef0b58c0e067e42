package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/nao1215/fixturesql"
	"go.uber.org/zap"
)

// version is overwritten at build time with -ldflags
var version = "dev"

// Context represents the global context for commands
type Context struct {
	Root    string
	Verbose bool
	Logger  *zap.Logger
}

// cli represents the command-line interface
type cli struct {
	Root        string         `help:"Project root holding env/ and fixture files" default:"." type:"path"`
	Verbose     bool           `help:"Enable debug logging" short:"v"`
	Exec        ExecCmd        `cmd:"" help:"Execute a SQL script split on batch separator lines"`
	Truncate    TruncateCmd    `cmd:"" help:"Remove every row from a table"`
	Load        LoadCmd        `cmd:"" help:"Bulk insert fixture files or directories, one table per file"`
	AssertTable AssertTableCmd `cmd:"" name:"assert-table" help:"Compare a table with an expected fixture"`
	AssertRow   AssertRowCmd   `cmd:"" name:"assert-row" help:"Compare the row matching a condition with a Column/Value fixture"`
	Dump        DumpCmd        `cmd:"" help:"Write a table to a fixture file"`
	JSONEqual   JSONEqualCmd   `cmd:"" name:"json-equal" help:"Compare two JSON documents after normalization"`
	Version     VersionCmd     `cmd:"" help:"Show version information"`
}

// CLI holds the parsed command line
var CLI cli

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Printf("fixturesql %s\n", version)
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("fixturesql"),
		kong.Description("Load fixtures into a database and assert on its contents."),
		kong.UsageOnError(),
	)

	logger := newLogger(CLI.Verbose)
	defer func() {
		_ = logger.Sync() // Ignore sync error on stderr
	}()

	appCtx := &Context{
		Root:    CLI.Root,
		Verbose: CLI.Verbose,
		Logger:  logger,
	}

	if err := ctx.Run(appCtx); err != nil {
		if errors.Is(err, fixturesql.ErrAssertion) {
			fmt.Fprintln(os.Stderr, fixturesql.RenderFailure(err))
		} else {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
