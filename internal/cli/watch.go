package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/output"
	"github.com/hupe1980/coursetree/internal/watch"
)

type watchOptions struct {
	filterOptions
	outputOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-filter a content tree whenever it changes",
		Long: `Watch monitors a content tree file (and the profiles file, if any)
and re-runs the filter each time it changes, writing the result to
--output.

File changes are debounced to avoid rapid re-runs. Each run reports the
number of remaining and removed nodes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerFilterFlags(cmd, &opts.filterOptions)
	registerOutputFlags(cmd, &opts.outputOptions)

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts *watchOptions) error {
	if opts.output == "" || opts.output == "-" {
		return &ExitError{Code: exitInvalid, Err: fmt.Errorf("--output (-o) is required for watch mode")}
	}

	if err := output.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: exitInvalid, Err: err}
	}

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		tree, err := content.ParseFile(path)
		if err != nil {
			return nil, err
		}

		result, err := runPipeline(fnCtx, tree, &opts.filterOptions)
		if err != nil {
			return nil, err
		}

		if err := writeTree(fnCtx, nil, result.Included, &opts.outputOptions); err != nil {
			return nil, err
		}

		return &watch.RunResult{
			Nodes:      content.Count(result.Included),
			Removed:    result.Removed(),
			OutputPath: opts.output,
		}, nil
	}

	files := []string{path}
	if pf := config.FromContext(ctx).ProfilesFile; pf != "" {
		files = append(files, pf)
	}

	watchOpts := watch.Options{
		Files:    files,
		Debounce: opts.debounce,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}

	return watch.Run(ctx, watchOpts, runFn)
}
