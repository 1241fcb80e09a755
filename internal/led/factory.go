package led

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/sysfs"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Config selects where the LED class devices live.
type Config struct {
	Root string
}

// New creates a Light for this board.
// Falls back to a no-op sink if the LED class directory is not available.
func New(cfg Config, logger *slog.Logger, eventBus *events.Bus) *Light {
	boardModel := detectBoard()
	paths := NewPaths(cfg.Root)

	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}

	logger.Info("Detecting board for LED control", "board_model", boardModel, "root", root)

	var sink sysfs.Sink
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		logger.Info("No LED class directory, using no-op sink", "root", root)
		sink = sysfs.NewNoop(logging.GetLogger("sysfs"))
	} else {
		sink = sysfs.NewWriter(logging.GetLogger("sysfs"), writeFailureHook(eventBus))
	}

	var opts []Option
	if eventBus != nil {
		opts = append(opts, WithEventBus(eventBus))
	}
	return NewLight(sink, paths, logger, opts...)
}

// writeFailureHook publishes write failures on the event bus.
func writeFailureHook(eventBus *events.Bus) sysfs.FailureFunc {
	if eventBus == nil {
		return nil
	}
	return func(path, value string, err error) {
		eventBus.Publish(events.SysfsWriteFailedEvent{
			Path:      path,
			Value:     value,
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
