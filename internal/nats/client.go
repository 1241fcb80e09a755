package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/lightnode/internal/led"
)

// ErrRejected is returned when the service could not decode a request.
var ErrRejected = errors.New("request rejected")

// Client sends light requests to a running service.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Dial connects to the NATS server at url.
func Dial(url string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("lightnode-client"),
		nats.Timeout(timeout),
		nats.MaxReconnects(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	return &Client{
		conn:   conn,
		logger: logger.With("component", "nats-client"),
	}, nil
}

// SetLight asks the service to apply state to the named light. Unknown
// names are sent as-is and come back as led.LightNotSupported.
func (c *Client) SetLight(ctx context.Context, lightType string, state led.State) (led.Status, error) {
	data, err := NewSetLightRequest(lightType, state).Marshal()
	if err != nil {
		return 0, err
	}

	msg, err := c.conn.RequestWithContext(ctx, SubjectSetLight, data)
	if err != nil {
		return 0, fmt.Errorf("set light request: %w", err)
	}

	reply, err := UnmarshalSetLightReply(msg.Data)
	if err != nil {
		return 0, fmt.Errorf("invalid set light reply: %w", err)
	}
	if reply.Error != "" {
		return 0, fmt.Errorf("%w: %s", ErrRejected, reply.Error)
	}

	c.logger.Debug("Set light", "type", lightType, "status", reply.Status)
	return led.ParseStatus(reply.Status)
}

// SupportedTypes returns the service's light types in priority order.
func (c *Client) SupportedTypes(ctx context.Context) ([]string, error) {
	msg, err := c.conn.RequestWithContext(ctx, SubjectTypes, nil)
	if err != nil {
		return nil, fmt.Errorf("types request: %w", err)
	}

	reply, err := UnmarshalTypesReply(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid types reply: %w", err)
	}
	return reply.Types, nil
}

// WatchStates calls fn for every applied state until ctx is done.
func (c *Client) WatchStates(ctx context.Context, fn func(StateMessage)) error {
	sub, err := c.conn.Subscribe(SubjectStatePrefix+".*", func(msg *nats.Msg) {
		m, err := UnmarshalState(msg.Data)
		if err != nil {
			c.logger.Warn("Failed to unmarshal state", "error", err, "subject", msg.Subject)
			return
		}
		fn(m)
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := c.conn.Flush(); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.conn.Close()
}
