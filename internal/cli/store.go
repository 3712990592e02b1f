package cli

import (
	"context"
	"log/slog"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/logging"
	"github.com/hupe1980/coursetree/internal/store"
)

// openStore opens the configured content store.
func openStore(ctx context.Context) (*store.Store, error) {
	path := config.FromContext(ctx).DB

	logging.FromContext(ctx).Debug("opening content store", slog.String("db", path))

	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, &ExitError{Code: exitGeneric, Err: err}
	}

	return st, nil
}
