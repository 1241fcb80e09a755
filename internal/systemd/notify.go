// Package systemd integrates the daemon with its service manager: readiness
// and watchdog notifications, plus unit status and restart over D-Bus.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. All methods are no-ops when the
// process was not started by systemd with NOTIFY_SOCKET set.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

func (n *Notifier) notify(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "state", state, "error", err)
		return false
	}
	if sent {
		n.logger.Debug("Notified systemd", "state", state)
	}
	return sent
}

// Ready reports that startup finished.
func (n *Notifier) Ready() bool {
	return n.notify(daemon.SdNotifyReady)
}

// Stopping reports that shutdown started.
func (n *Notifier) Stopping() bool {
	return n.notify(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) bool {
	return n.notify("STATUS=" + status)
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns immediately when no watchdog is configured.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.logger.Info("Systemd watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}
