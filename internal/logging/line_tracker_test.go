package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTracker_Concurrent(t *testing.T) {
	tracker := NewLineTracker()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tracker.Increment()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, tracker.Current())
	tracker.Reset()
	assert.Equal(t, 0, tracker.Current())
}

func TestTrackingHandler_CountsWrittenLines(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewLineTracker()
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewTrackingHandler(inner, tracker)).With(slog.String("run_id", "r1"))

	logger.Debug("filtered")
	logger.Info("one")
	logger.WithGroup("step").Warn("two", slog.String("id", "s"))

	assert.Equal(t, 2, tracker.Current())
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestTrackingHandler_FailedWriteNotCounted(t *testing.T) {
	tracker := NewLineTracker()
	h := NewTrackingHandler(&recordingHandler{err: errSinkA}, tracker)

	err := h.Handle(context.Background(), newRecord(slog.LevelInfo, "x"))

	require.ErrorIs(t, err, errSinkA)
	assert.Zero(t, tracker.Current())
}
