package led

import (
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/sysfs"
)

// backend is one row of the dispatch table.
type backend struct {
	lightType Type
	handler   handler
	state     State
}

// newBackends returns the dispatch table sorted by importance.
func newBackends() []backend {
	return []backend{
		{lightType: Attention, handler: handlerIndicator},
		{lightType: Notifications, handler: handlerIndicator},
		{lightType: Battery, handler: handlerIndicator},
		{lightType: Backlight, handler: handlerBacklight},
	}
}

// Light dispatches light requests to the board LEDs.
// All table access and hardware writes happen under one lock so requests
// for the shared indicator LED never interleave.
type Light struct {
	mu       sync.Mutex
	backends []backend
	paths    Paths
	sink     sysfs.Sink
	eventBus *events.Bus
	logger   *slog.Logger
}

// Option configures a Light.
type Option func(*Light)

// WithEventBus publishes a LightStateChangedEvent after every applied request.
func WithEventBus(bus *events.Bus) Option {
	return func(l *Light) {
		l.eventBus = bus
	}
}

// NewLight creates a dispatcher writing to sink.
func NewLight(sink sysfs.Sink, paths Paths, logger *slog.Logger, opts ...Option) *Light {
	l := &Light{
		backends: newBackends(),
		paths:    paths,
		sink:     sink,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetLight implements Controller.
func (l *Light) SetLight(lightType Type, state State) Status {
	l.mu.Lock()

	idx := l.find(lightType)
	if idx < 0 {
		l.mu.Unlock()
		metrics.RecordSetLight(lightType.String(), LightNotSupported.String())
		l.logger.Warn("Light type not supported", "type", lightType.String())
		return LightNotSupported
	}

	l.backends[idx].state = state
	h := l.backends[idx].handler

	appliedType, applied := resolve(l.backends, h, lightType, state)
	for _, w := range h.encode(l.paths, applied) {
		l.sink.WriteInt(w.Path, w.Value)
	}

	l.mu.Unlock()

	l.logger.Debug("Light state applied",
		"type", lightType.String(),
		"applied_type", appliedType.String(),
		"color", state.Color,
		"flash_mode", state.FlashMode.String(),
		"flash_on_ms", state.FlashOnMs,
		"flash_off_ms", state.FlashOffMs)

	metrics.RecordSetLight(lightType.String(), Success.String())

	if l.eventBus != nil {
		l.eventBus.Publish(events.LightStateChangedEvent{
			LightType:   lightType.String(),
			AppliedType: appliedType.String(),
			Color:       state.Color,
			FlashMode:   state.FlashMode.String(),
			FlashOnMs:   state.FlashOnMs,
			FlashOffMs:  state.FlashOffMs,
			Timestamp:   time.Now().Format(time.RFC3339),
		})
	}

	return Success
}

// SupportedTypes implements Controller.
func (l *Light) SupportedTypes() []Type {
	l.mu.Lock()
	defer l.mu.Unlock()

	types := make([]Type, 0, len(l.backends))
	for _, b := range l.backends {
		types = append(types, b.lightType)
	}
	return types
}

// State implements Controller.
func (l *Light) State(lightType Type) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(lightType)
	if idx < 0 {
		return State{}, false
	}
	return l.backends[idx].state, true
}

// find returns the table index for lightType, or -1. Caller holds mu.
func (l *Light) find(lightType Type) int {
	for i, b := range l.backends {
		if b.lightType == lightType {
			return i
		}
	}
	return -1
}

// resolve picks the state to render for handler h: the first lit entry
// sharing h in table order, or the requested state when none is lit.
func resolve(backends []backend, h handler, requested Type, state State) (Type, State) {
	for _, b := range backends {
		if b.handler == h && b.state.Lit() {
			return b.lightType, b.state
		}
	}
	return requested, state
}
