package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/output"
)

// filterOptions holds the flags shared by every command that filters a
// content tree. remove-types, profile and profiles-file are also config
// keys; their effective values are read from config.Config.
type filterOptions struct {
	excludeIDs []string
	summary    bool
}

// outputOptions holds the flags shared by every command that writes a tree.
type outputOptions struct {
	output string
	format string
	indent int
}

func (o *outputOptions) serializeOptions() output.Options {
	return output.Options{Format: o.format, Indent: o.indent}
}

// registerFilterFlags adds the tree filtering flags to a cobra command.
func registerFilterFlags(cmd *cobra.Command, opts *filterOptions) {
	f := cmd.Flags()
	f.StringSlice("remove-types", nil, "resource types to remove (default: videoResource)")
	f.String("profile", "", "apply a filter profile (outline, text-only, none, or custom)")
	f.String("profiles-file", "", "YAML file with custom profiles")
	f.StringSliceVar(&opts.excludeIDs, "exclude-ids", nil, "remove resources by ID")
	f.BoolVar(&opts.summary, "summary", false, "print a filter summary to stderr")

	_ = cmd.RegisterFlagCompletionFunc("profile", completeProfiles)
}

// registerOutputFlags adds the output destination and format flags.
func registerOutputFlags(cmd *cobra.Command, opts *outputOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")
	registerFormatFlags(cmd, opts)
}

// registerFormatFlags adds only the format flags.
func registerFormatFlags(cmd *cobra.Command, opts *outputOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.format, "format", output.FormatYAML, "output format: yaml, json")
	f.IntVar(&opts.indent, "indent", 2, "indentation width")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// registerStoreFlags adds the store location flag.
func registerStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", config.DefaultDB, "path of the SQLite content store")
}

// registerPollFlags adds the poll schedule flags.
func registerPollFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("max-attempts", config.DefaultMaxAttempts, "maximum number of lookups per resource")
	f.Duration("initial-delay", config.DefaultInitialDelay, "wait before the second lookup")
	f.Duration("delay-increment", config.DefaultDelayIncrement, "extra wait added after each empty lookup")
}
