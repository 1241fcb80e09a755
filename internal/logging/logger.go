package logging

import (
	"log/slog"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Config holds the global level, output format and per-module level overrides.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// levelFor resolves the level of module: its override, else the global level, else info.
func (c Config) levelFor(module string) slog.Level {
	if level, ok := parseLevel(c.Modules[module]); ok {
		return level
	}
	if level, ok := parseLevel(c.Level); ok {
		return level
	}
	return slog.LevelInfo
}

// moduleLogger pairs a cached logger with the LevelVar its handlers read.
type moduleLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var (
	mu          sync.RWMutex
	current     Config
	initialized bool
	globalLevel = new(slog.LevelVar)
	modules     = make(map[string]*moduleLogger)
	buffer      *RingBuffer
	onEntry     LogCallback
)

// Initialize configures logging and allocates a fresh ring buffer.
// Loggers handed out earlier keep their LevelVar and get rebuilt handlers.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	current = config
	initialized = true
	buffer = NewRingBuffer(defaultBufferSize)

	globalLevel.Set(config.levelFor(""))
	for name, m := range modules {
		m.level.Set(config.levelFor(name))
		m.logger = newModuleLogger(name, config.Format, m.level)
	}

	slog.SetDefault(slog.New(newHandler(config.Format, globalLevel)))
}

// UpdateLevels applies new levels in place. Handlers, format and the
// buffered log history are left untouched.
func UpdateLevels(config Config) {
	mu.Lock()
	defer mu.Unlock()

	current.Level = config.Level
	current.Modules = config.Modules

	globalLevel.Set(config.levelFor(""))
	for name, m := range modules {
		m.level.Set(config.levelFor(name))
	}
}

// GetBuffer returns the ring buffer, or nil before Initialize.
func GetBuffer() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return buffer
}

// SetLogCallback registers fn to receive every buffered entry. nil removes it.
func SetLogCallback(fn LogCallback) {
	mu.Lock()
	defer mu.Unlock()
	onEntry = fn
}

// GetLogger returns the cached logger for module, creating it on first use.
// Records carry a "module" attribute.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	m, ok := modules[module]
	mu.RUnlock()
	if ok {
		return m.logger
	}

	mu.Lock()
	defer mu.Unlock()
	if m, ok := modules[module]; ok {
		return m.logger
	}

	level := new(slog.LevelVar)
	format := "text"
	if initialized {
		level.Set(current.levelFor(module))
		format = current.Format
	}

	m = &moduleLogger{level: level, logger: newModuleLogger(module, format, level)}
	modules[module] = m
	return m.logger
}

func newModuleLogger(module, format string, level slog.Leveler) *slog.Logger {
	return slog.New(newHandler(format, level)).With("module", module)
}

// parseLevel accepts debug, info, warn/warning and error in any case.
func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
