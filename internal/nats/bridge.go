package nats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/lightnode/internal/events"
)

// Bridge forwards applied light states from the event bus to NATS so that
// other processes can follow the LED without polling.
type Bridge struct {
	url      string
	eventBus *events.Bus
	conn     *nats.Conn
	unsub    func()
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewBridge creates a new EventBus-to-NATS bridge.
func NewBridge(url string, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and subscribes to light state events.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("lightnode-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.unsub = b.eventBus.Subscribe(b.publishState)
	b.logger.Info("NATS bridge connected", "url", b.url)
	return nil
}

func (b *Bridge) publishState(e events.LightStateChangedEvent) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := StateMessage{
		Type:        e.LightType,
		AppliedType: e.AppliedType,
		Color:       e.Color,
		FlashMode:   e.FlashMode,
		FlashOnMs:   e.FlashOnMs,
		FlashOffMs:  e.FlashOffMs,
		Timestamp:   e.Timestamp,
	}.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal state", "error", err)
		return
	}

	if err := conn.Publish(SubjectState(e.LightType), data); err != nil {
		b.logger.Warn("Failed to publish state", "type", e.LightType, "error", err)
		return
	}
	b.logger.Debug("Published light state", "type", e.LightType, "applied_type", e.AppliedType)
}

// Stop unsubscribes from the bus and closes the connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	unsub, conn := b.unsub, b.conn
	b.unsub, b.conn = nil, nil
	b.mu.Unlock()

	// Handlers take b.mu, so unsubscribe without holding it
	if unsub != nil {
		unsub()
	}
	if conn != nil {
		conn.Close()
	}
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
