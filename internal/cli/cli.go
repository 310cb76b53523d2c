// Package cli implements the llmbench command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmbench/internal/config"
	"llmbench/internal/logging"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks bad invocations; it maps to ExitUsage.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// reportedError marks a failure whose details were already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

type globalOptions struct {
	configPath string
	verbose    bool
	logFormat  string
}

// app holds state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions
	logger zerolog.Logger
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), args, stdout, stderr)
}

// RunContext is Run with a caller-provided context.
func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, logger: zerolog.Nop()}
	root := newRootCommand(a)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var reported reportedError
	if errors.As(err, &reported) {
		return ExitError
	}
	var usage usageError
	if errors.As(err, &usage) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'llmbench --help' for usage.")
		return ExitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "llmbench",
		Short:         "Benchmark local LLMs against keyword datasets",
		Long:          "llmbench sends dataset prompts to a local Ollama model, scores each answer by expected keywords, and keeps a history of runs.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return usageErrorf("missing command")
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "config file (default: search for config/config.yaml)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging and plain output")
	flags.StringVar(&a.opts.logFormat, "log-format", logging.FormatConsole, "log format: console|json")

	root.AddCommand(
		newRunCommand(a),
		newHistoryCommand(a),
		newShowCommand(a),
		newDatasetsCommand(a),
		newModelsCommand(a),
		newStatusCommand(a),
		newValidateCommand(a),
		newInitCommand(a),
	)
	return root
}

func (a *app) setupLogger() error {
	logger, err := logging.New(a.stderr, logging.Options{
		Format:  a.opts.logFormat,
		Verbose: a.opts.verbose,
		NoColor: !isTerminal(a.stderr),
	})
	if err != nil {
		return usageError{err: err}
	}
	a.logger = logger
	return nil
}

// loadConfig finds and loads the config, falling back to defaults when
// no file exists and --config was not given.
func (a *app) loadConfig() (config.Config, error) {
	cfg, path, found, err := config.Discover(a.opts.configPath, "")
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if found {
		a.logger.Debug().Str("path", path).Msg("config loaded")
	} else {
		a.logger.Debug().Str("root", cfg.Root).Msg("no config file, using defaults")
	}
	return cfg, nil
}

// exactArgs wraps cobra's arity check so violations map to ExitUsage.
func exactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
