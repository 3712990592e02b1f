package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/filter"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/output"
)

type filterCommandOptions struct {
	filterOptions
	outputOptions
}

func newFilterCommand() *cobra.Command {
	opts := &filterCommandOptions{}

	cmd := &cobra.Command{
		Use:   "filter <file>",
		Short: "Remove resource types from a content tree",
		Long: `Filter reads a content tree (JSON, YAML, or several YAML documents),
removes every resource of the configured types at every depth, and
renumbers the surviving siblings 0..n-1.

Without --remove-types or --profile, videoResource nodes are removed.
Use --profile none to only renumber positions.`,
		Example: `  coursetree filter lesson.yaml
  coursetree filter lesson.json --remove-types videoResource,image --format json
  coursetree filter lesson.yaml --profile text-only -o outline.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerFilterFlags(cmd, &opts.filterOptions)
	registerOutputFlags(cmd, &opts.outputOptions)

	return cmd
}

func runFilter(ctx context.Context, cmd *cobra.Command, path string, opts *filterCommandOptions) error {
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

	if err := writeTree(ctx, cmd.OutOrStdout(), result.Included, &opts.outputOptions); err != nil {
		return err
	}

	if opts.summary {
		printFilterSummary(cmd.ErrOrStderr(), result)
	}

	return nil
}

// writeTree serializes tree and sends it to the configured destination.
func writeTree(ctx context.Context, stdout io.Writer, tree []content.Association, opts *outputOptions) error {
	data, err := output.Serialize(tree, opts.serializeOptions())
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	w := output.NewWriter(opts.output, stdout, output.WithLogger(logging.FromContext(ctx)))
	if err := w.Write(data); err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	return nil
}

// printFilterSummary prints the removed subtrees and the remaining node count.
func printFilterSummary(w io.Writer, result *filter.Result) {
	_, _ = fmt.Fprintf(w, "\n--- Filter Summary ---\n")

	for _, ex := range result.Excluded {
		_, _ = fmt.Fprintf(w, "  Removed: %s [%s] at depth %d (%s)\n",
			ex.Association.ResourceID, ex.Association.Type(), ex.Depth, ex.Reason)
	}

	_, _ = fmt.Fprintf(w, "  Removed: %d, Remaining: %d\n",
		result.Removed(), content.Count(result.Included))
	_, _ = fmt.Fprintf(w, "----------------------\n")
}
