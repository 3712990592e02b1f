package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/content"
	"github.com/hupe1980/coursetree/internal/filter"
	"github.com/hupe1980/coursetree/internal/logging"
)

// runPipeline applies the configured filter chain to tree. This is the
// shared core used by filter, diff, watch and tree.
func runPipeline(ctx context.Context, tree []content.Association, opts *filterOptions) (*filter.Result, error) {
	logger := logging.FromContext(ctx)

	chain, err := buildFilterChain(ctx, opts)
	if err != nil {
		return nil, &ExitError{Code: exitInvalid, Err: err}
	}

	result, err := chain.Apply(ctx, tree)
	if err != nil {
		return nil, &ExitError{Code: exitGeneric, Err: fmt.Errorf("filtering tree: %w", err)}
	}

	logger.Debug("tree filtered",
		slog.Int("filters", chain.Len()),
		slog.Int("nodes", content.Count(result.Included)),
		slog.Int("removed", result.Removed()),
	)

	return result, nil
}

// loadTree parses a content tree file, mapping failures to exit code 1.
func loadTree(ctx context.Context, path string) ([]content.Association, error) {
	logging.FromContext(ctx).Info("loading content tree", slog.String("path", path))

	tree, err := content.ParseFile(path)
	if err != nil {
		return nil, &ExitError{Code: exitGeneric, Err: err}
	}

	return tree, nil
}

// buildFilterChain assembles a filter chain from config and CLI flags.
// Without a profile or explicit remove-types the default type filter
// applies. The chain may be empty, which still renumbers positions.
func buildFilterChain(ctx context.Context, opts *filterOptions) (*filter.Chain, error) {
	cfg := config.FromContext(ctx)

	var filters []filter.Filter

	// 1. Profile-based filters.
	if cfg.Profile != "" {
		custom, err := loadCustomProfiles(ctx, cfg)
		if err != nil {
			return nil, err
		}

		p, err := filter.ResolveProfile(cfg.Profile, custom)
		if err != nil {
			return nil, err
		}

		filters = append(filters, filter.BuildFiltersFromProfile(p)...)
	}

	// 2. Type removal.
	switch {
	case len(cfg.RemoveTypes) > 0:
		filters = append(filters, filter.NewTypeFilter(filter.Types(cfg.RemoveTypes...)))
	case cfg.Profile == "":
		filters = append(filters, filter.NewTypeFilter(nil))
	}

	// 3. Resource ID exclusion.
	if opts != nil && len(opts.excludeIDs) > 0 {
		filters = append(filters, filter.NewResourceIDFilter(opts.excludeIDs))
	}

	return filter.NewChain(filters...), nil
}

// loadCustomProfiles reads custom profiles from profiles-file when set,
// otherwise from the "profiles" section of the config file in use.
func loadCustomProfiles(ctx context.Context, cfg *config.Config) (map[string]filter.ProfileConfig, error) {
	if cfg.ProfilesFile != "" {
		return filter.LoadCustomProfiles(cfg.ProfilesFile)
	}

	data, err := tryReadConfigFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading config file for profiles: %w", err)
	}

	if data == nil {
		return nil, nil
	}

	return filter.ParseCustomProfiles(data)
}

// tryReadConfigFile reads the config file resolved by viper. It falls back
// to .coursetree.yaml in the current directory.
func tryReadConfigFile(ctx context.Context) ([]byte, error) {
	path := config.ConfigFileFromContext(ctx)
	if path == "" {
		path = ".coursetree.yaml"
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return data, err
}
