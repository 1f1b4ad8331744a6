package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/luna-agent/luna/internal/terminal"
)

// Console handler construction errors
var (
	ErrWriterRequired       = errors.New("console handler: writer is required")
	ErrCapabilitiesRequired = errors.New("console handler: capabilities are required")
)

// ConsoleOptions configures NewConsoleHandler
type ConsoleOptions struct {
	Writer       io.Writer
	Level        slog.Leveler
	Capabilities terminal.Capabilities

	// Formatter renders interactive lines; nil selects NewConsoleFormatter
	Formatter Formatter

	// LogPath and Tracker let error lines point into the run log. Both optional.
	LogPath string
	Tracker *LineTracker
}

// NewConsoleHandler returns a human friendly handler when the console is
// interactive and a plain slog.TextHandler otherwise
func NewConsoleHandler(opts ConsoleOptions) (slog.Handler, error) {
	if opts.Writer == nil {
		return nil, ErrWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrCapabilitiesRequired
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	if !opts.Capabilities.IsInteractive() {
		return slog.NewTextHandler(opts.Writer, &slog.HandlerOptions{Level: level}), nil
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = NewConsoleFormatter()
	}
	return &InteractiveHandler{
		shared: &interactiveShared{
			writer:    opts.Writer,
			level:     level,
			color:     opts.Capabilities.SupportsColor(),
			formatter: formatter,
			logPath:   opts.LogPath,
			tracker:   opts.Tracker,
		},
	}, nil
}

type interactiveShared struct {
	mu        sync.Mutex
	writer    io.Writer
	level     slog.Leveler
	color     bool
	formatter Formatter
	logPath   string
	tracker   *LineTracker
}

// InteractiveHandler writes one formatted line per record. Attributes added
// under groups are flattened to dotted keys.
type InteractiveHandler struct {
	shared *interactiveShared
	attrs  []slog.Attr
	prefix string
}

// Enabled implements slog.Handler
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.shared.level.Level()
}

// Handle implements slog.Handler
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	record := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	record.AddAttrs(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		record.AddAttrs(h.qualify(a))
		return true
	})

	s := h.shared
	var sb strings.Builder
	sb.WriteString(s.formatter.Format(record, s.color))
	sb.WriteByte('\n')
	if r.Level >= slog.LevelError && s.tracker != nil {
		if hint := s.formatter.FormatLogHint(s.logPath, s.tracker.Current(), s.color); hint != "" {
			sb.WriteString(hint)
			sb.WriteByte('\n')
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.writer, sb.String())
	return err
}

// WithAttrs implements slog.Handler
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, h.qualify(a))
	}
	return &InteractiveHandler{shared: h.shared, attrs: merged, prefix: h.prefix}
}

// WithGroup implements slog.Handler
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &InteractiveHandler{shared: h.shared, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func (h *InteractiveHandler) qualify(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	return slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
}
