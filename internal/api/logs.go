package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/logging"
)

// LogEvent converts a buffered log entry to its SSE form.
func LogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// LogStreamInput selects where the replay starts.
type LogStreamInput struct {
	Since uint64 `query:"since" doc:"Only replay entries with a larger seq, for resuming a dropped stream"`
}

// registerLogRoutes registers the log streaming SSE endpoint.
func (s *Server) registerLogRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Sends buffered log history, then streams new entries. Clients deduplicate by seq.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *LogStreamInput, send sse.Sender) {
		// Subscribe before replaying history so nothing falls in between
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		lastSeq := input.Since
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.Since(input.Since) {
				if err := send.Data(LogEvent(entry)); err != nil {
					return
				}
				lastSeq = entry.Seq
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if e, ok := event.(events.LogEntryEvent); ok && e.Seq != 0 && e.Seq <= lastSeq {
					continue
				}
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
