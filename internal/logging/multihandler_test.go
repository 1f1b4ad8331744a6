package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errSinkA = errors.New("sink a failed")
	errSinkB = errors.New("sink b failed")
)

// recordingHandler keeps every record it receives
type recordingHandler struct {
	mu      sync.Mutex
	level   slog.Level
	records []slog.Record
	err     error
	attrs   []slog.Attr
	groups  []string
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{level: h.level, err: h.err, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...), groups: h.groups}
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return &recordingHandler{level: h.level, err: h.err, attrs: h.attrs, groups: append(append([]string(nil), h.groups...), name)}
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func newRecord(level slog.Level, msg string, attrs ...slog.Attr) slog.Record {
	r := slog.NewRecord(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), level, msg, 0)
	r.AddAttrs(attrs...)
	return r
}

func TestMultiHandler_Dispatch(t *testing.T) {
	debug := &recordingHandler{level: slog.LevelDebug}
	warn := &recordingHandler{level: slog.LevelWarn}
	h := NewMultiHandler(debug, nil, warn)

	require.Len(t, h.Handlers(), 2)
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelInfo, "Command started")))
	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelError, "Command failed")))

	assert.Equal(t, 2, debug.count())
	assert.Equal(t, 1, warn.count())
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(&recordingHandler{level: slog.LevelWarn}, &recordingHandler{level: slog.LevelError})
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	ok := &recordingHandler{}
	h := NewMultiHandler(&recordingHandler{err: errSinkA}, ok, &recordingHandler{err: errSinkB})

	err := h.Handle(context.Background(), newRecord(slog.LevelInfo, "x"))

	require.Error(t, err)
	assert.ErrorIs(t, err, errSinkA)
	assert.ErrorIs(t, err, errSinkB)
	assert.Equal(t, 1, ok.count(), "a failing sink does not stop the others")
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	h := NewMultiHandler(&recordingHandler{}, &recordingHandler{})

	derived, ok := h.WithAttrs([]slog.Attr{slog.String("run_id", "r1")}).WithGroup("step").(*MultiHandler)
	require.True(t, ok)

	for _, inner := range derived.Handlers() {
		rh, ok := inner.(*recordingHandler)
		require.True(t, ok)
		assert.Equal(t, "r1", rh.attrs[0].Value.String())
		assert.Equal(t, []string{"step"}, rh.groups)
	}
	assert.Empty(t, h.Handlers()[0].(*recordingHandler).attrs, "original untouched")
}

func TestMultiHandler_WithRealHandlers(t *testing.T) {
	var text, json bytes.Buffer
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&text, nil),
		slog.NewJSONHandler(&json, nil),
	))

	logger.Info("Command completed", slog.Int("exit_code", 0))

	assert.Contains(t, text.String(), "exit_code=0")
	assert.Contains(t, json.String(), `"exit_code":0`)
}
