package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/lightnode/internal/logging"
)

// HTTPLoggingMiddleware logs each request at a level derived from its outcome.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
		slog.Int("status", ctx.Status()),
		slog.Duration("duration", time.Since(start)),
	}
	if query := ctx.URL().RawQuery; query != "" {
		attrs = append(attrs, slog.String("query", query))
	}
	if op := ctx.Operation(); op != nil && op.OperationID != "" {
		attrs = append(attrs, slog.String("operation", op.OperationID))
	}

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLevel(ctx.Method(), ctx.Status()),
		"HTTP request completed", attrs...)
}

func requestLevel(method string, status int) slog.Level {
	switch {
	case method == http.MethodOptions:
		return slog.LevelDebug
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
