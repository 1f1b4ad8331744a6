package redaction

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

const maxDepth = 10

// FailurePlaceholder replaces a value whose redaction could not complete
const FailurePlaceholder = "[REDACTION FAILED - OUTPUT SUPPRESSED]"

// RedactingHandler masks secrets in the message and attributes of every
// record before passing it to the wrapped handler
type RedactingHandler struct {
	handler  slog.Handler
	patterns *Patterns
}

// NewRedactingHandler wraps handler. A nil patterns value selects DefaultPatterns.
func NewRedactingHandler(handler slog.Handler, patterns *Patterns) *RedactingHandler {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &RedactingHandler{handler: handler, patterns: patterns}
}

// Enabled implements slog.Handler
func (r *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return r.handler.Enabled(ctx, level)
}

// Handler returns the wrapped handler
func (r *RedactingHandler) Handler() slog.Handler {
	return r.handler
}

// Handle implements slog.Handler
func (r *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, r.patterns.RedactText(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(r.redactAttr(attr, 0))
		return true
	})
	return r.handler.Handle(ctx, out)
}

// WithAttrs implements slog.Handler
func (r *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = r.redactAttr(attr, 0)
	}
	return &RedactingHandler{handler: r.handler.WithAttrs(redacted), patterns: r.patterns}
}

// WithGroup implements slog.Handler
func (r *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: r.handler.WithGroup(name), patterns: r.patterns}
}

// RedactAttr masks a single attribute outside of a handler
func (r *RedactingHandler) RedactAttr(attr slog.Attr) slog.Attr {
	return r.redactAttr(attr, 0)
}

func (r *RedactingHandler) redactAttr(attr slog.Attr, depth int) slog.Attr {
	if depth >= maxDepth {
		return slog.String(attr.Key, FailurePlaceholder)
	}
	if r.patterns.IsSensitiveKey(attr.Key) {
		return slog.String(attr.Key, Placeholder)
	}

	value := attr.Value
	switch value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, r.patterns.RedactText(value.String()))

	case slog.KindGroup:
		group := value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, a := range group {
			redacted[i] = r.redactAttr(a, depth+1)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}

	case slog.KindLogValuer:
		resolved, err := resolve(value.LogValuer())
		if err != nil {
			return slog.String(attr.Key, FailurePlaceholder)
		}
		return r.redactAttr(slog.Attr{Key: attr.Key, Value: resolved}, depth+1)

	case slog.KindAny:
		return r.redactAny(attr.Key, value.Any(), depth)

	default:
		return attr
	}
}

func (r *RedactingHandler) redactAny(key string, v any, depth int) slog.Attr {
	switch x := v.(type) {
	case error:
		return slog.String(key, r.patterns.RedactText(x.Error()))
	case fmt.Stringer:
		return slog.String(key, r.patterns.RedactText(x.String()))
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = r.patterns.RedactText(s)
		}
		return slog.Any(key, out)
	case map[string]string:
		attrs := make([]slog.Attr, 0, len(x))
		for k, s := range x {
			attrs = append(attrs, r.redactAttr(slog.String(k, s), depth+1))
		}
		return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = r.redactAttr(slog.Any(key, rv.Index(i).Interface()), depth+1).Value.Any()
		}
		return slog.Any(key, out)
	}
	return slog.Any(key, v)
}

// resolve calls LogValue, turning a panic into an error
func resolve(v slog.LogValuer) (value slog.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("LogValue panicked: %v", p)
		}
	}()
	return v.LogValue(), nil
}
