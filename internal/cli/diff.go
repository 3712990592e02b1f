package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/diff"
	"github.com/hupe1980/coursetree/internal/output"
)

type diffOptions struct {
	filterOptions
	outputOptions

	// Exit with code 4 when the filter changes the tree.
	exitCode bool

	// Lines of context around each change.
	context int
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show what filtering would change",
		Long: `Diff filters a content tree and prints a unified diff of the input
against the filtered result. Both sides are serialized the same way so
only removed nodes and renumbered positions show up.

Exit codes:
  0  No differences (or --exit-code not set)
  1  Error
  2  Invalid arguments
  4  Differences found and --exit-code set`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerFilterFlags(cmd, &opts.filterOptions)
	registerFormatFlags(cmd, &opts.outputOptions)

	f := cmd.Flags()
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 4 when differences are found")
	f.IntVar(&opts.context, "context", 3, "lines of context around each change")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, path string, opts *diffOptions) error {
	if err := output.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: exitInvalid, Err: err}
	}

	tree, err := loadTree(ctx, path)
	if err != nil {
		return err
	}

	result, err := runPipeline(ctx, tree, &opts.filterOptions)
	if err != nil {
		return err
	}

	serOpts := opts.serializeOptions()

	before, err := output.Serialize(tree, serOpts)
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: fmt.Errorf("serializing input tree: %w", err)}
	}

	after, err := output.Serialize(result.Included, serOpts)
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: fmt.Errorf("serializing filtered tree: %w", err)}
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = path
	diffOpts.Context = opts.context

	diffResult, err := diff.Compute(string(before), string(after), diffOpts)
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	cfg := config.FromContext(ctx)
	w := cmd.OutOrStdout()

	diff.Write(w, diffResult, !cfg.NoColor)

	if diffResult.HasDifferences && !cfg.Quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s, %d node(s) removed\n", diffResult.Summary(), result.Removed())
	}

	if opts.exitCode && diffResult.HasDifferences {
		return &ExitError{Code: exitDifferences}
	}

	return nil
}
