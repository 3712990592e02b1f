package poll

import (
	"context"
	"log/slog"
	"time"
)

// Defaults applied when the corresponding option is not given.
const (
	DefaultMaxAttempts    = 30
	DefaultInitialDelay   = 250 * time.Millisecond
	DefaultDelayIncrement = 250 * time.Millisecond
)

// SleepFunc suspends the calling goroutine for d or until ctx is done,
// whichever comes first. It returns ctx.Err() when interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a poll.
type Option func(*options)

type options struct {
	maxAttempts    int
	initialDelay   time.Duration
	delayIncrement time.Duration
	concurrency    int
	sleep          SleepFunc
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxAttempts:    DefaultMaxAttempts,
		initialDelay:   DefaultInitialDelay,
		delayIncrement: DefaultDelayIncrement,
		sleep:          Sleep,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithMaxAttempts caps the number of lookups. A value below 1 makes the
// poll fail with ErrResourceNotFound without calling the lookup.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithInitialDelay sets the wait before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(o *options) {
		o.initialDelay = d
	}
}

// WithDelayIncrement sets the amount added to the wait after every
// empty attempt.
func WithDelayIncrement(d time.Duration) Option {
	return func(o *options) {
		o.delayIncrement = d
	}
}

// WithSleep replaces the wait primitive. Tests use it to record the
// schedule without sleeping.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithLogger enables debug logging of every attempt.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConcurrency limits how many polls PollAll runs at once.
// Zero or less means no limit.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// Sleep is the default SleepFunc. It waits on a timer and returns early
// with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
