package updater

import (
	"context"
	"os"
	"syscall"
)

// SignalRestarter sends SIGTERM to the current process and relies on the
// unit's Restart= policy to bring it back. Use it when D-Bus is unavailable.
type SignalRestarter struct{}

// Restart implements Restarter.
func (SignalRestarter) Restart(context.Context) (string, error) {
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return "", err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return "", err
	}
	return "done", nil
}
