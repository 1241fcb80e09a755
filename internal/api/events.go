package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/lightnode/internal/events"
)

// ConnectedMessage is the first message on every event stream.
type ConnectedMessage struct {
	Message   string `json:"message" example:"SSE connection established" doc:"Greeting"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Connection time"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of applied light states and failed sysfs writes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":           ConnectedMessage{},
		"light-state-changed": events.LightStateChangedEvent{},
		"sysfs-write-failed":  events.SysfsWriteFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.LightStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SysfsWriteFailedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(ConnectedMessage{
			Message:   "SSE connection established",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
