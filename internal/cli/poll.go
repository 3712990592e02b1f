package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/output"
	"github.com/hupe1980/coursetree/internal/poll"
)

type pollOptions struct {
	outputOptions

	concurrency int
}

func newPollCommand() *cobra.Command {
	opts := &pollOptions{}

	cmd := &cobra.Command{
		Use:   "poll <id>...",
		Short: "Wait until resources appear in the store",
		Long: `Poll looks each resource up in the store until it exists, waiting a
little longer after every miss (initial-delay, then + delay-increment
per attempt). All IDs are polled concurrently and printed in argument
order once every one of them was found.

Exit codes:
  0  All resources found
  1  Error
  2  Invalid arguments
  3  A resource was still missing after max-attempts lookups`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(cmd.Context(), cmd, args, opts)
		},
	}

	registerFormatFlags(cmd, &opts.outputOptions)
	registerStoreFlags(cmd)
	registerPollFlags(cmd)

	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "maximum number of concurrent polls (0 = unlimited)")

	return cmd
}

func runPoll(ctx context.Context, cmd *cobra.Command, ids []string, opts *pollOptions) error {
	if err := output.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: exitInvalid, Err: err}
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := config.FromContext(ctx)

	found, err := poll.PollAll(ctx, ids, st.GetResource,
		poll.WithMaxAttempts(cfg.MaxAttempts),
		poll.WithInitialDelay(cfg.InitialDelay),
		poll.WithDelayIncrement(cfg.DelayIncrement),
		poll.WithConcurrency(opts.concurrency),
		poll.WithLogger(logging.FromContext(ctx)),
	)
	if err != nil {
		var nf *poll.NotFoundError
		if errors.As(err, &nf) {
			return &ExitError{Code: exitNotFound, Err: fmt.Errorf("%s after %d attempt(s): %w", nf.ID, nf.Attempts, err)}
		}

		return &ExitError{Code: exitGeneric, Err: err}
	}

	resources := make([]content.Resource, 0, len(found))
	for _, r := range found {
		resources = append(resources, *r)
	}

	data, err := output.SerializeValue(resources, opts.serializeOptions())
	if err != nil {
		return &ExitError{Code: exitGeneric, Err: err}
	}

	return output.NewStdoutWriter(cmd.OutOrStdout()).Write(data)
}
