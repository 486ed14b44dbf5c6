// Package cli parses the command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/sweepgridgo/internal/app"
	"github.com/vk/sweepgridgo/internal/solver"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("sweepgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
SweepGridGo - orchestrates sweeps of an external numerical solver.

Usage:
  sweepgridgo [options] SWEEP_PATH

Arguments:
  SWEEP_PATH
    Path to an .hcl sweep specification file.

Options:
`)
		flagSet.PrintDefaults()
	}

	sweepFlag := flagSet.String("sweep", "", "Path to the sweep specification file.")
	sFlag := flagSet.String("s", "", "Path to the sweep specification file (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	parallelFlag := flagSet.Int("parallel", 1, "Maximum number of concurrently executing runs.")
	runRootFlag := flagSet.String("run-root", ".", "Directory run namespaces are created under.")
	journalFlag := flagSet.String("journal", "", "Path to a SQLite run journal. Empty disables journaling.")
	decomposeBinFlag := flagSet.String("decompose-bin", "", "Domain decomposition executable.")
	solverBinFlag := flagSet.String("solver-bin", "", "Solver analysis executable.")
	mpiexecFlag := flagSet.String("mpiexec", "", "MPI launcher used when partitions > 1.")
	partitionsFlag := flagSet.Int("partitions", 1, "Number of mesh partitions.")
	skipDecomposedFlag := flagSet.Bool("skip-decomposed", false, "Skip decomposition for configs already decomposed and not re-perturbed.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *sweepFlag != "" {
		path = *sweepFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	if *parallelFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid parallel: must be at least 1"}
	}

	// Log level and format are validated (and defaulted) by app.NewConfig.
	config, err := app.NewConfig(app.Config{
		SweepPath:   path,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
		RunRoot:     *runRootFlag,
		JournalPath: *journalFlag,
		Parallel:    *parallelFlag,
		Tools: solver.Tools{
			DecomposeBin:   *decomposeBinFlag,
			AnalysisBin:    *solverBinFlag,
			MPIExec:        *mpiexecFlag,
			Partitions:     *partitionsFlag,
			SkipDecomposed: *skipDecomposedFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
