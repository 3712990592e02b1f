package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid events into a single callback invocation.
// The callback receives the last path seen and the number of events that
// were folded into the call.
type Debouncer struct {
	interval time.Duration
	callback func(path string, events int)
	logger   *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	lastPath string
	events   int
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback. A nil logger falls back to slog.Default.
func NewDebouncer(interval time.Duration, logger *slog.Logger, callback func(path string, events int)) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Debouncer{
		interval: interval,
		callback: callback,
		logger:   logger,
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastPath = path
	d.events++

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

// Pending reports whether events are waiting for the quiet period to end.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.events > 0
}

func (d *Debouncer) fire() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	p, n := d.lastPath, d.events
	d.events = 0
	d.timer = nil
	d.mu.Unlock()

	if n == 0 {
		return
	}

	d.callback(p, n)
}

// Stop cancels any pending debounced callback and drops its events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.events = 0
}
