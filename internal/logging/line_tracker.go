package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LineTracker counts records written to the run log so console errors can
// point at the matching line
type LineTracker struct {
	lines atomic.Int64
}

// NewLineTracker creates a tracker starting at zero
func NewLineTracker() *LineTracker {
	return &LineTracker{}
}

// Current returns the number of lines written so far
func (t *LineTracker) Current() int {
	return int(t.lines.Load())
}

// Increment records one more line and returns the new count
func (t *LineTracker) Increment() int {
	return int(t.lines.Add(1))
}

// Reset sets the count back to zero
func (t *LineTracker) Reset() {
	t.lines.Store(0)
}

// TrackingHandler counts each record successfully handled by the wrapped
// handler. It wraps line-oriented handlers such as slog.JSONHandler.
type TrackingHandler struct {
	handler slog.Handler
	tracker *LineTracker
}

// NewTrackingHandler wraps handler
func NewTrackingHandler(handler slog.Handler, tracker *LineTracker) *TrackingHandler {
	return &TrackingHandler{handler: handler, tracker: tracker}
}

// Enabled implements slog.Handler
func (h *TrackingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *TrackingHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}
	h.tracker.Increment()
	return nil
}

// WithAttrs implements slog.Handler
func (h *TrackingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TrackingHandler{handler: h.handler.WithAttrs(attrs), tracker: h.tracker}
}

// WithGroup implements slog.Handler
func (h *TrackingHandler) WithGroup(name string) slog.Handler {
	return &TrackingHandler{handler: h.handler.WithGroup(name), tracker: h.tracker}
}
