package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultUnit is the unit name installed by the packaging.
const DefaultUnit = "lightnode.service"

// Manager queries and controls the daemon's unit over D-Bus.
type Manager struct {
	conn *dbus.Conn
	unit string
}

// NewManager connects to the system bus, or the user bus when user is set.
func NewManager(ctx context.Context, unit string, user bool) (*Manager, error) {
	if unit == "" {
		unit = DefaultUnit
	}

	connect := dbus.NewSystemConnectionContext
	if user {
		connect = dbus.NewUserConnectionContext
	}
	conn, err := connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &Manager{conn: conn, unit: unit}, nil
}

// Unit returns the managed unit name.
func (m *Manager) Unit() string {
	return m.unit
}

// Status returns the unit's ActiveState, e.g. "active" or "failed".
func (m *Manager) Status(ctx context.Context) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, m.unit, "ActiveState")
	if err != nil {
		return "", err
	}
	var state string
	if err := prop.Value.Store(&state); err != nil {
		return prop.Value.String(), nil
	}
	return state, nil
}

// Restart restarts the unit and waits for the job to finish.
func (m *Manager) Restart(ctx context.Context) (string, error) {
	done := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, m.unit, "replace", done); err != nil {
		return "", err
	}
	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
