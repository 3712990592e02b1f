// Package watch provides the live-reload loop behind "coursetree watch".
// It monitors a content tree file (and optionally a profiles file) for
// changes, debounces rapid events, and re-runs the filter pipeline.
package watch
