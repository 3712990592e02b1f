package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc is called each time the watcher triggers a regeneration.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single pipeline execution.
type RunResult struct {
	// Nodes is the number of nodes left in the filtered tree.
	Nodes int
	// Removed is the number of subtrees the filters dropped.
	Removed int
	// OutputPath is where the filtered tree was written, if anywhere.
	OutputPath string
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the files whose changes trigger a rebuild. Their parent
	// directories are watched so editors that replace files on save
	// are still observed.
	Files []string

	// Debounce is the quiet period before triggering a rebuild.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Files) == 0 {
		return fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	targets, err := addFiles(watcher, opts.Files)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}

	r.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, opts.Logger, func(path string, events int) {
		trigger := path
		if events > 1 {
			trigger = fmt.Sprintf("%s (+%d events)", path, events-1)
		}

		r.run(sigCtx, trigger)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, targets) {
				continue
			}

			opts.Logger.Debug("change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// runner executes pipeline runs and remembers the previous result so each
// status line can report how the tree changed.
type runner struct {
	mu    sync.Mutex
	opts  Options
	runFn RunFunc
	prev  *RunResult
}

// run executes a single pipeline run and prints the status line.
func (r *runner) run(ctx context.Context, trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Format("15:04:05")

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(r.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(r.opts.Out, "[%s] %s → OK (%d nodes, %d removed)\n",
		now, trigger, result.Nodes, result.Removed)

	if r.prev != nil {
		fmt.Fprintf(r.opts.Out, "  tree: %s\n", ChangeSummary(r.prev, result))
	}

	if result.OutputPath != "" {
		fmt.Fprintf(r.opts.Out, "  wrote %s\n", result.OutputPath)
	}

	r.prev = result
}

// ChangeSummary describes the difference in node counts between two runs.
func ChangeSummary(prev, curr *RunResult) string {
	delta := curr.Nodes - prev.Nodes

	switch {
	case delta > 0:
		return fmt.Sprintf("+%d node(s)", delta)
	case delta < 0:
		return fmt.Sprintf("%d node(s)", delta)
	default:
		return "no node count change"
	}
}

// addFiles watches the parent directory of every file and returns the set
// of absolute file paths that count as relevant.
func addFiles(watcher *fsnotify.Watcher, files []string) (map[string]bool, error) {
	targets := make(map[string]bool, len(files))
	dirs := make(map[string]bool)

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving file %q: %w", f, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching file %q: %w", f, err)
		}

		targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}

		dirs[dir] = true
	}

	return targets, nil
}

// isRelevant reports whether event touches one of the watched files.
func isRelevant(event fsnotify.Event, targets map[string]bool) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Editor temporaries and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	return targets[abs]
}
