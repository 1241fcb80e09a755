package logging

import (
	"context"
	"log/slog"
	"time"
)

// LogCallback receives each entry after it has been buffered.
type LogCallback func(entry LogEntry)

// BufferHandler records into the package ring buffer and notifies the log
// callback. Both are looked up per record, so handlers built before
// Initialize or SetLogCallback still reach them.
type BufferHandler struct {
	level  slog.Leveler
	module string
	attrs  map[string]any
	prefix string
}

// NewBufferHandler creates a handler for records at or above level.
func NewBufferHandler(level slog.Leveler) *BufferHandler {
	return &BufferHandler{level: level, module: "app"}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp:  r.Time,
		Level:      levelName(r.Level),
		Module:     h.module,
		Message:    r.Message,
		Attributes: make(map[string]any, len(h.attrs)+r.NumAttrs()),
	}
	for k, v := range h.attrs {
		entry.Attributes[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "module" && h.prefix == "" {
			entry.Module = a.Value.String()
			return true
		}
		flatten(entry.Attributes, h.prefix, a)
		return true
	})

	mu.RLock()
	rb, fn := buffer, onEntry
	mu.RUnlock()

	if rb != nil {
		entry = rb.Write(entry)
	}
	if fn != nil {
		fn(entry)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make(map[string]any, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		clone.attrs[k] = v
	}
	for _, a := range attrs {
		if a.Key == "module" && h.prefix == "" {
			clone.module = a.Value.String()
			continue
		}
		flatten(clone.attrs, h.prefix, a)
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// flatten stores a under prefix+key, descending into groups with dot-separated keys.
func flatten(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindGroup:
		if a.Key != "" {
			prefix = key + "."
		}
		for _, ga := range a.Value.Group() {
			flatten(dst, prefix, ga)
		}
	case slog.KindTime:
		dst[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		dst[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			dst[key] = err.Error()
		} else {
			dst[key] = a.Value.Any()
		}
	default:
		dst[key] = a.Value.Any()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
