package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
)

// newHandler builds the sink chain shared by every logger: stdout when
// something is attached to it, journald when running, and the ring buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	}

	var sinks fanout
	if stdoutAttached() {
		sinks = append(sinks, stdout)
	}
	if IsJournalAvailable() {
		sinks = append(sinks, NewJournalHandler(level))
	}
	sinks = append(sinks, NewBufferHandler(level))

	if len(sinks) == 1 {
		return sinks[0]
	}
	return sinks
}

// stdoutAttached reports whether stdout goes to a terminal, pipe, socket or
// regular file. /dev/null is a device and reports false.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
