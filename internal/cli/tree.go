package cli

import (
	"context"

	"github.com/spf13/cobra"
)

type treeOptions struct {
	filterOptions
	outputOptions

	raw bool
}

func newTreeCommand() *cobra.Command {
	opts := &treeOptions{}

	cmd := &cobra.Command{
		Use:   "tree <root-id>",
		Short: "Print the filtered content tree of a stored resource",
		Long: `Tree loads the associations below a resource from the store, ordered
by position, and prints them after filtering. Use --raw to skip the
filter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerFilterFlags(cmd, &opts.filterOptions)
	registerOutputFlags(cmd, &opts.outputOptions)
	registerStoreFlags(cmd)

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the stored tree without filtering")

	return cmd
}

func runTree(ctx context.Context, cmd *cobra.Command, rootID string, opts *treeOptions) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	tree, err := st.Tree(ctx, rootID)
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	if !opts.raw {
		result, err := runPipeline(ctx, tree, &opts.filterOptions)
		if err != nil {
			return err
		}

		tree = result.Included

		if opts.summary {
			printFilterSummary(cmd.ErrOrStderr(), result)
		}
	}

	return writeTree(ctx, cmd.OutOrStdout(), tree, &opts.outputOptions)
}
