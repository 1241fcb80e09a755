// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are plain slog loggers whose handler fans out to every available sink:
//   - systemd journal when journald is running
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory ring buffer that backs the /api/logs/stream endpoint
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"led":  "debug",
//			"nats": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("led")
//	logger.Info("Light state applied", "type", "battery")
//
// Loggers are cached per module and read their level from a LevelVar, so
// UpdateLevels (called by the config watcher) takes effect without
// re-fetching loggers.
//
// # Viewing Logs
//
//	journalctl -t lightnode              # All lightnode logs
//	journalctl -t lightnode -f           # Follow live
//	journalctl -t lightnode -p err       # Errors only (includes failed sysfs writes)
//	journalctl -t lightnode MODULE=led
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	led = "debug"
//	sysfs = "warn"
package logging
