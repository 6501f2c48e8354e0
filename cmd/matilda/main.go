// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/Fran-cois/MATILDA/internal/config"
	"github.com/Fran-cois/MATILDA/internal/discover"
	"github.com/Fran-cois/MATILDA/internal/inspect"
	"github.com/Fran-cois/MATILDA/internal/inspect/ddlinspect"
	_ "github.com/Fran-cois/MATILDA/internal/inspect/mysqlinspect"
	_ "github.com/Fran-cois/MATILDA/internal/inspect/sqliteinspect"
	"github.com/Fran-cois/MATILDA/internal/output"
	"github.com/Fran-cois/MATILDA/internal/parser"
)

// Exit codes of the tool.
const (
	exitOK        = 0
	exitConfig    = 1
	exitBackend   = 2
	exitCancelled = 3
)

type discoverFlags struct {
	dsn        string
	driver     string
	schemaFile string
	dbName     string
	configFile string
	format     string
	outFile    string
	resultsDir string
	strategy   string
	heuristic  string
	maxTables  int
	maxVars    int
	maxOcc     int
	support    float64
	confidence float64
	overlap    float64
	timeout    int
	verbose    bool
}

// exitError carries the process exit code chosen for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	rootCmd := &cobra.Command{
		Use:           "matilda",
		Short:         "Tuple-generating dependency discovery over relational databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(compatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitConfig)
	}
	os.Exit(exitOK)
}

func discoverCmd() *cobra.Command {
	flags := &discoverFlags{}
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover TGD rules satisfied by a database",
		Long: `Discover enumerates candidate tuple-generating dependencies over the
constraint graph of a database and keeps those satisfied by the data above
the support and confidence thresholds.

Examples:
  matilda discover --driver mysql --dsn "user:pass@tcp(localhost:3306)/mydb"
  matilda discover --driver sqlite --dsn mydb.sqlite --strategy astar --heuristic hybrid
  matilda discover --schema-file dump.sql --results results/`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDiscover(flags)
		},
	}

	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Database connection string")
	cmd.Flags().StringVar(&flags.driver, "driver", "mysql", "Database driver: mysql or sqlite")
	cmd.Flags().StringVar(&flags.schemaFile, "schema-file", "", "Schema dump to inspect instead of a live database")
	cmd.Flags().StringVar(&flags.dbName, "name", "db", "Database name used in side files and output")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Config file (.toml, .yaml)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: json, human or summary")
	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Output file (stdout when omitted)")
	cmd.Flags().StringVar(&flags.resultsDir, "results", "", "Directory for compatibility, graph and timing side files")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "Traversal strategy: dfs, bfs or astar")
	cmd.Flags().StringVar(&flags.heuristic, "heuristic", "", "Best-first heuristic: naive, table_size, join_selectivity or hybrid")
	cmd.Flags().IntVar(&flags.maxTables, "max-tables", 0, "Maximum distinct table occurrences per rule (N)")
	cmd.Flags().IntVar(&flags.maxVars, "max-vars", 0, "Maximum variables per rule")
	cmd.Flags().IntVar(&flags.maxOcc, "max-occurrence", 0, "Maximum occurrences of one table per rule")
	cmd.Flags().Float64Var(&flags.support, "min-support", -1, "Minimum support for a rule to be emitted")
	cmd.Flags().Float64Var(&flags.confidence, "min-confidence", -1, "Minimum confidence for a rule to be emitted")
	cmd.Flags().Float64Var(&flags.overlap, "min-overlap", -1, "Minimum value overlap for attribute compatibility")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Run timeout in seconds (0 disables)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runDiscover(flags *discoverFlags) error {
	log, err := newLogger(flags.verbose)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	insp, cleanup, err := openInspector(flags)
	if err != nil {
		return &exitError{code: exitBackend, err: err}
	}
	defer cleanup()

	ctx := context.Background()
	var cancel context.CancelFunc
	if flags.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flags.timeout)*time.Second)
		defer cancel()
	}

	it, err := discover.Run(ctx, insp, flags.dbName, cfg, log)
	if err != nil {
		if discover.ErrConfig.Is(err) {
			return &exitError{code: exitConfig, err: err}
		}
		return &exitError{code: exitBackend, err: err}
	}

	rules := discover.Collect(it)
	summary := it.Summary()

	formatted, err := formatter.Format(rules, summary)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if err := writeOutput(formatted, flags.outFile); err != nil {
		return &exitError{code: exitBackend, err: err}
	}

	if summary.Cancelled {
		return &exitError{code: exitCancelled, err: discover.ErrCancelled.New()}
	}
	return nil
}

func runCompat(flags *discoverFlags) error {
	log, err := newLogger(flags.verbose)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	cfg, err := buildConfig(flags)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	insp, cleanup, err := openInspector(flags)
	if err != nil {
		return &exitError{code: exitBackend, err: err}
	}
	defer cleanup()

	it, err := discover.Run(context.Background(), insp, flags.dbName, cfg, log)
	if err != nil {
		if discover.ErrConfig.Is(err) {
			return &exitError{code: exitConfig, err: err}
		}
		return &exitError{code: exitBackend, err: err}
	}

	formatter, _ := output.NewFormatter(string(output.FormatSummary))
	formatted, err := formatter.Format(nil, it.Summary())
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	return writeOutput(formatted, flags.outFile)
}

func compatCmd() *cobra.Command {
	flags := &discoverFlags{}
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Write the attribute compatibility relation of a schema to side files",
		Long: `Compat runs only the initialization phases (schema snapshot,
compatibility analysis and constraint graph build) and writes the side
files. Useful to understand which joins discovery will consider.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if flags.resultsDir == "" {
				flags.resultsDir = "."
			}
			return runCompat(flags)
		},
	}

	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Database connection string")
	cmd.Flags().StringVar(&flags.driver, "driver", "mysql", "Database driver: mysql or sqlite")
	cmd.Flags().StringVar(&flags.schemaFile, "schema-file", "", "Schema dump to inspect instead of a live database")
	cmd.Flags().StringVar(&flags.dbName, "name", "db", "Database name used in side files")
	cmd.Flags().StringVar(&flags.resultsDir, "results", "", "Directory for side files (default current directory)")
	cmd.Flags().Float64Var(&flags.overlap, "min-overlap", -1, "Minimum value overlap for attribute compatibility")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func buildConfig(flags *discoverFlags) (discover.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return cfg, err
	}
	if flags.strategy != "" {
		cfg.Strategy = flags.strategy
	}
	if flags.heuristic != "" {
		cfg.Heuristic = flags.heuristic
	}
	if flags.maxTables > 0 {
		cfg.MaxTables = flags.maxTables
	}
	if flags.maxVars > 0 {
		cfg.MaxVars = flags.maxVars
	}
	if flags.maxOcc > 0 {
		cfg.MaxOccurrence = flags.maxOcc
	}
	if flags.support >= 0 {
		cfg.SupportThreshold = flags.support
	}
	if flags.confidence >= 0 {
		cfg.ConfidenceThreshold = flags.confidence
	}
	if flags.overlap >= 0 {
		cfg.OverlapThreshold = flags.overlap
	}
	if flags.resultsDir != "" {
		cfg.ResultsDir = flags.resultsDir
	}
	return cfg, cfg.Validate()
}

func openInspector(flags *discoverFlags) (inspect.Inspector, func(), error) {
	noop := func() {}

	if flags.schemaFile != "" {
		data, err := os.ReadFile(flags.schemaFile)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to read schema file: %w", err)
		}
		db, err := parser.NewParser().Parse(string(data))
		if err != nil {
			return nil, noop, err
		}
		return ddlinspect.New(db), noop, nil
	}

	if flags.dsn == "" {
		return nil, noop, fmt.Errorf("either --dsn or --schema-file is required")
	}
	pool, err := sql.Open(flags.driver, flags.dsn)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, noop, fmt.Errorf("failed to reach database: %w", err)
	}
	insp, err := inspect.New(flags.driver, pool)
	if err != nil {
		_ = pool.Close()
		return nil, noop, err
	}
	return inspect.WithRetry(insp), func() { _ = pool.Close() }, nil
}

func newLogger(verbose bool) (*logrus.Entry, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return logrus.NewEntry(l), nil
}

func writeOutput(content, outFile string) error {
	if outFile == "" {
		fmt.Print(content)
		if content != "" && content[len(content)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}
	if err := os.WriteFile(outFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("Output saved to %s\n", outFile)
	return nil
}
