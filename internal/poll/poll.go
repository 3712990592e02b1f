package poll

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// GetFunc looks up the resource identified by id. It returns a nil pointer
// while the resource does not exist yet.
type GetFunc[T any] func(ctx context.Context, id string) (*T, error)

// Sequence is a lazy, single-value poll. Nothing happens until the first
// call to Next.
type Sequence[T any] struct {
	id   string
	get  GetFunc[T]
	opts options

	mu   sync.Mutex
	done bool
}

// PollResource prepares a poll for id. The returned sequence produces at
// most one value.
func PollResource[T any](id string, get GetFunc[T], opts ...Option) *Sequence[T] {
	return &Sequence[T]{
		id:   id,
		get:  get,
		opts: buildOptions(opts),
	}
}

// Next runs the poll on its first call. It returns (v, true, nil) when the
// resource appeared. On failure ok is false and err is either an error
// matching ErrResourceNotFound, the lookup's own error, or ctx.Err().
// Every later call returns (nil, false, nil).
func (s *Sequence[T]) Next(ctx context.Context) (v *T, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, false, nil
	}

	s.done = true

	v, err = s.run(ctx)
	if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

// All adapts the sequence to a range-over-func iterator. The iterator
// yields the value, or a single nil value with the error.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		v, ok, err := s.Next(ctx)

		switch {
		case err != nil:
			yield(nil, err)
		case ok:
			yield(v, nil)
		}
	}
}

func (s *Sequence[T]) run(ctx context.Context) (*T, error) {
	delay := s.opts.initialDelay

	for attempt := 1; attempt <= s.opts.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.opts.sleep(ctx, delay); err != nil {
				return nil, err
			}

			delay += s.opts.delayIncrement
		}

		v, err := s.get(ctx, s.id)
		if err != nil {
			return nil, err
		}

		if v != nil {
			s.debug(ctx, "resource found", slog.Int("attempt", attempt))
			return v, nil
		}

		s.debug(ctx, "resource not ready", slog.Int("attempt", attempt), slog.Duration("nextDelay", delay))
	}

	return nil, &NotFoundError{ID: s.id, Attempts: max(s.opts.maxAttempts, 0)}
}

func (s *Sequence[T]) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.opts.logger == nil {
		return
	}

	s.opts.logger.LogAttrs(ctx, slog.LevelDebug, msg,
		append([]slog.Attr{slog.String("id", s.id)}, attrs...)...)
}

// Poll runs a poll for id to completion.
func Poll[T any](ctx context.Context, id string, get GetFunc[T], opts ...Option) (*T, error) {
	v, _, err := PollResource(id, get, opts...).Next(ctx)
	return v, err
}

// PollAll polls every id concurrently and returns the results in the order
// of ids. The first failure cancels the remaining polls.
func PollAll[T any](ctx context.Context, ids []string, get GetFunc[T], opts ...Option) ([]*T, error) {
	o := buildOptions(opts)
	results := make([]*T, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, id := range ids {
		g.Go(func() error {
			v, err := Poll(gctx, id, get, opts...)
			if err != nil {
				return err
			}

			results[i] = v

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
