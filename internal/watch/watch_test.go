package watch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Debouncer
// ---------------------------------------------------------------------------

func TestDebouncer_SingleEvent(t *testing.T) {
	var callCount atomic.Int32
	var lastPath atomic.Value

	d := NewDebouncer(50*time.Millisecond, nil, func(path string, _ int) {
		callCount.Add(1)
		lastPath.Store(path)
	})
	defer d.Stop()

	d.Trigger("a.yaml")

	// Wait for debounce to fire.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.Equal(t, "a.yaml", lastPath.Load())
}

func TestDebouncer_MultipleEventsCoalesced(t *testing.T) {
	var callCount, events atomic.Int32
	var lastPath atomic.Value

	d := NewDebouncer(100*time.Millisecond, nil, func(path string, n int) {
		callCount.Add(1)
		events.Store(int32(n))
		lastPath.Store(path)
	})
	defer d.Stop()

	// Ten rapid events coalesce into one call.
	for i := 0; i < 10; i++ {
		d.Trigger("file.yaml")
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.Equal(t, int32(10), events.Load())
	assert.Equal(t, "file.yaml", lastPath.Load())
}

func TestDebouncer_LastEventWins(t *testing.T) {
	var lastPath atomic.Value

	d := NewDebouncer(50*time.Millisecond, nil, func(path string, _ int) {
		lastPath.Store(path)
	})
	defer d.Stop()

	d.Trigger("first.yaml")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("second.yaml")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("third.yaml")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, "third.yaml", lastPath.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, nil, func(_ string, _ int) {
		callCount.Add(1)
	})

	d.Trigger("a.yaml")
	assert.True(t, d.Pending())
	d.Stop()
	assert.False(t, d.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), callCount.Load())
}

func TestDebouncer_RecoversFromPanic(t *testing.T) {
	var calls atomic.Int32

	d := NewDebouncer(20*time.Millisecond, logDiscard(), func(_ string, _ int) {
		calls.Add(1)
		panic("boom")
	})
	defer d.Stop()

	d.Trigger("a.yaml")
	time.Sleep(80 * time.Millisecond)

	d.Trigger("b.yaml")
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(2), calls.Load())
}

func logDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ---------------------------------------------------------------------------
// ChangeSummary
// ---------------------------------------------------------------------------

func TestChangeSummary(t *testing.T) {
	tests := []struct {
		name       string
		prev, curr int
		want       string
	}{
		{"grew", 3, 5, "+2 node(s)"},
		{"shrank", 5, 1, "-4 node(s)"},
		{"same", 4, 4, "no node count change"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangeSummary(&RunResult{Nodes: tt.prev}, &RunResult{Nodes: tt.curr})
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// isRelevant
// ---------------------------------------------------------------------------

func TestIsRelevant(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "tree.yaml")
	targets := map[string]bool{tree: true}

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"tree write", tree, fsnotify.Write, true},
		{"create event", tree, fsnotify.Create, true},
		{"remove event", tree, fsnotify.Remove, true},
		{"rename event", tree, fsnotify.Rename, true},
		{"other file", filepath.Join(dir, "out.yaml"), fsnotify.Write, false},
		{"hidden temp", filepath.Join(dir, ".tree.yaml.123"), fsnotify.Create, false},
		{"swap file", filepath.Join(dir, "tree.yaml.swp"), fsnotify.Write, false},
		{"backup tilde", filepath.Join(dir, "tree.yaml~"), fsnotify.Write, false},
		{"emacs hash", filepath.Join(dir, "#tree.yaml#"), fsnotify.Write, false},
		{"zero op", tree, 0, false},
		{"chmod only", tree, fsnotify.Chmod, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: tt.path, Op: tt.op}
			assert.Equal(t, tt.want, isRelevant(event, targets))
		})
	}
}

// ---------------------------------------------------------------------------
// addFiles
// ---------------------------------------------------------------------------

func TestAddFiles_WatchesParentDirsOnce(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "profiles")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	c := filepath.Join(sub, "c.yaml")

	for _, f := range []string{a, b, c} {
		require.NoError(t, os.WriteFile(f, []byte("[]"), 0o644))
	}

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	targets, err := addFiles(watcher, []string{a, b, c})
	require.NoError(t, err)
	assert.Len(t, targets, 3)
	assert.ElementsMatch(t, []string{dir, sub}, watcher.WatchList())
}

func TestAddFiles_Missing(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	_, err = addFiles(watcher, []string{"/nonexistent/dir/12345/tree.yaml"})
	assert.ErrorContains(t, err, "watching file")
}

// ---------------------------------------------------------------------------
// Run (integration)
// ---------------------------------------------------------------------------

func writeTree(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	return path
}

func TestRun_GracefulShutdown(t *testing.T) {
	tree := writeTree(t)

	ctx, cancel := context.WithCancel(context.Background())

	var runCount atomic.Int32

	opts := DefaultOptions()
	opts.Files = []string{tree}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			runCount.Add(1)
			return &RunResult{Nodes: 1}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	assert.GreaterOrEqual(t, runCount.Load(), int32(1))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not shut down in time")
	}
}

func TestRun_FileChangeTriggersRebuild(t *testing.T) {
	tree := writeTree(t)
	other := filepath.Join(filepath.Dir(tree), "out.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runCount atomic.Int32

	opts := DefaultOptions()
	opts.Files = []string{tree}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			runCount.Add(1)
			return &RunResult{Nodes: 1}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	initialRuns := runCount.Load()

	// Writes to unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("[]"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, initialRuns, runCount.Load())

	require.NoError(t, os.WriteFile(tree, []byte("- resourceId: a\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Greater(t, runCount.Load(), initialRuns, "file change should trigger rebuild")

	cancel()
	<-done
}

func TestRun_StatusLines(t *testing.T) {
	tree := writeTree(t)

	ctx, cancel := context.WithCancel(context.Background())

	var (
		out   syncBuffer
		nodes atomic.Int32
	)

	opts := DefaultOptions()
	opts.Files = []string{tree}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = &out

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			return &RunResult{Nodes: int(nodes.Add(2)), Removed: 1, OutputPath: "out.yaml"}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(tree, []byte("[]\n"), 0o644))
	time.Sleep(300 * time.Millisecond)

	cancel()
	<-done

	s := out.String()
	assert.Contains(t, s, "(initial) → OK (2 nodes, 1 removed)")
	assert.Contains(t, s, "tree: +2 node(s)")
	assert.Contains(t, s, "wrote out.yaml")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.NotNil(t, opts.Logger)
	assert.NotNil(t, opts.Out)
}

func TestRun_NoFiles(t *testing.T) {
	err := Run(context.Background(), Options{}, func(_ context.Context) (*RunResult, error) {
		return &RunResult{}, nil
	})
	assert.ErrorContains(t, err, "no files to watch")
}

func TestRun_MissingFile(t *testing.T) {
	opts := DefaultOptions()
	opts.Files = []string{"/nonexistent/dir/12345/tree.yaml"}
	opts.Out = io.Discard

	err := Run(context.Background(), opts, func(_ context.Context) (*RunResult, error) {
		return &RunResult{}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching file")
}

func TestRun_RunFuncError(t *testing.T) {
	tree := writeTree(t)

	ctx, cancel := context.WithCancel(context.Background())

	var out syncBuffer

	opts := DefaultOptions()
	opts.Files = []string{tree}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = &out

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			return nil, fmt.Errorf("pipeline error")
		})
	}()

	// The watcher keeps running after a failed run.
	time.Sleep(200 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "ERROR: pipeline error")
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test
// to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
