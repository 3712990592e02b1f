package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/logging"
)

type importOptions struct {
	rootID   string
	rootType string
}

func newImportCommand() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a content tree into the store",
		Long: `Import stores every resource of a content tree in the SQLite store
and links its top level under --root. Existing resources with the same
ID are updated in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.rootID, "root", "", "ID of the resource the tree belongs to (required)")
	f.StringVar(&opts.rootType, "root-type", "", "also store the root resource with this type")
	registerStoreFlags(cmd)

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, path string, opts *importOptions) error {
	if opts.rootID == "" {
		return &ExitError{Code: exitInvalid, Err: fmt.Errorf("--root is required")}
	}

	tree, err := loadTree(ctx, path)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.rootType != "" {
		root := &content.Resource{ID: opts.rootID, Type: opts.rootType}
		if err := st.PutResource(ctx, root); err != nil {
			return &ExitError{Code: exitGeneric, Err: err}
		}
	}

	if err := st.Import(ctx, opts.rootID, tree); err != nil {
		return &ExitError{Code: exitGeneric, Err: fmt.Errorf("importing %s: %w", path, err)}
	}

	n := content.Count(tree)
	logging.FromContext(ctx).Info("content tree imported",
		slog.String("root", opts.rootID),
		slog.Int("nodes", n),
	)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d node(s) under %s\n", n, opts.rootID)

	return nil
}
