package logging

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/luna-agent/luna/internal/terminal"
)

// maxFallbackAttrs bounds the attributes shown when no priority key is present
const maxFallbackAttrs = 3

// Formatter renders records as single console lines
type Formatter interface {
	Format(record slog.Record, color bool) string
	FormatLogHint(path string, line int, color bool) string
}

// ConsoleFormatter shows the level, message and the attributes an operator
// needs to follow a run
type ConsoleFormatter struct {
	// ShowTime prefixes each line with a wall clock time
	ShowTime bool
}

// NewConsoleFormatter creates a formatter without timestamps
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// priorityKeys lists the attributes shown for a level, in display order.
// stderr appears from WARN upward and stdout only at DEBUG.
func priorityKeys(level slog.Level) []string {
	keys := []string{"error", "step_id", "command", "category", "exit_code", "hazard", "reason", "risk"}
	switch {
	case level >= slog.LevelWarn:
		return slices.Insert(keys, 1, "stderr")
	case level < slog.LevelInfo:
		return append(keys, "stdout")
	}
	return keys
}

// skippedKeys never reach the console
var skippedKeys = []string{"run_id", "hostname", "pid", "log_file", "interactive", "color"}

// Format implements Formatter
func (f *ConsoleFormatter) Format(record slog.Record, color bool) string {
	var sb strings.Builder
	if f.ShowTime {
		sb.WriteString(record.Time.Format(time.TimeOnly))
		sb.WriteByte(' ')
	}
	sb.WriteString(formatLevel(record.Level, color))
	sb.WriteByte(' ')
	sb.WriteString(record.Message)

	for _, attr := range selectAttrs(record) {
		sb.WriteByte(' ')
		sb.WriteString(attr.Key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(attr.Value))
	}
	return sb.String()
}

// FormatLogHint points at the run log for error records
func (f *ConsoleFormatter) FormatLogHint(path string, line int, color bool) string {
	if path == "" || line <= 0 {
		return ""
	}
	hint := "see " + path + ":" + strconv.Itoa(line)
	if color {
		return terminal.Cyan("  ↳ " + hint)
	}
	return "  HINT: " + hint
}

func selectAttrs(record slog.Record) []slog.Attr {
	all := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		all = append(all, attr)
		return true
	})

	var picked []slog.Attr
	for _, key := range priorityKeys(record.Level) {
		i := slices.IndexFunc(all, func(a slog.Attr) bool {
			return a.Key == key || strings.HasSuffix(a.Key, "."+key)
		})
		if i >= 0 {
			picked = append(picked, all[i])
		}
	}
	if len(picked) > 0 {
		return picked
	}

	for _, attr := range all {
		if len(picked) == maxFallbackAttrs {
			break
		}
		if !slices.Contains(skippedKeys, attr.Key) {
			picked = append(picked, attr)
		}
	}
	return picked
}

func formatLevel(level slog.Level, color bool) string {
	if !color {
		switch {
		case level >= slog.LevelError:
			return "[ERROR]"
		case level >= slog.LevelWarn:
			return "[WARN ]"
		case level >= slog.LevelInfo:
			return "[INFO ]"
		default:
			return "[DEBUG]"
		}
	}
	switch {
	case level >= slog.LevelError:
		return terminal.Red("✗ ERROR")
	case level >= slog.LevelWarn:
		return terminal.Yellow("! WARN ")
	case level >= slog.LevelInfo:
		return terminal.Green("✓ INFO ")
	default:
		return terminal.Gray("· DEBUG")
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+formatValue(a.Value))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return v.Resolve().String()
	}
}
