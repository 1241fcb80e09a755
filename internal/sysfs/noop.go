package sysfs

import (
	"log/slog"
	"strconv"
)

// Noop implements Sink for hosts without LED class devices.
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates a sink that only logs.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{
		logger: logger,
	}
}

// Write logs the request but touches nothing.
func (n *Noop) Write(path, value string) {
	n.logger.Debug("LED control not available (no-op)", "path", path, "value", value)
}

// WriteInt logs the request but touches nothing.
func (n *Noop) WriteInt(path string, value int) {
	n.Write(path, strconv.Itoa(value))
}
