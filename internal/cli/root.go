// Package cli implements the cobra command tree for coursetree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/version"
)

// Process exit codes.
const (
	exitGeneric     = 1
	exitInvalid     = 2
	exitNotFound    = 3
	exitDifferences = 4
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				cmd.PrintErrln("Error:", exitErr.Err)
			}

			return exitErr.Code
		}

		cmd.PrintErrln("Error:", err)

		return exitGeneric
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "coursetree",
		Short: "Filter and poll course content trees",
		Long: `coursetree works with the content-association trees of a course
platform: nested lists of resources (lessons, sections, videos, ...)
linked to their parents at a position.

It removes unwanted resource types at every depth and renumbers the
surviving siblings, stores trees in a local SQLite database, and polls
that store until freshly created resources become visible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitInvalid, Err: err}
			}

			if err := version.Check(cfg.RequiredVersion, version.GetInfo().Version); err != nil {
				return &ExitError{Code: exitInvalid, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .coursetree.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitInvalid, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newFilterCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newImportCommand(),
		newTreeCommand(),
		newPollCommand(),
		newCompletionCommand(),
	)

	return cmd
}
