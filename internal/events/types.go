package events

// Event type constants for kelindar/event.
const (
	TypeLightStateChanged uint32 = iota + 1
	TypeSysfsWriteFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LightStateChangedEvent is published after a light request has been applied.
// AppliedType names the light whose state now drives the physical LED, which
// differs from LightType when a higher priority indicator is lit.
type LightStateChangedEvent struct {
	LightType   string `json:"type" example:"battery" doc:"Requested light type"`
	AppliedType string `json:"applied_type" example:"attention" doc:"Light type whose state was written to hardware"`
	Color       uint32 `json:"color" example:"4278255360" doc:"ARGB color of the requested state"`
	FlashMode   string `json:"flash_mode" example:"timed" doc:"Flash mode of the requested state"`
	FlashOnMs   int    `json:"flash_on_ms" example:"500" doc:"Requested on duration in milliseconds"`
	FlashOffMs  int    `json:"flash_off_ms" example:"500" doc:"Requested off duration in milliseconds"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LightStateChangedEvent.
func (e LightStateChangedEvent) Type() uint32 { return TypeLightStateChanged }

// SysfsWriteFailedEvent is published when an attribute write fails.
type SysfsWriteFailedEvent struct {
	Path      string `json:"path" example:"/sys/class/leds/green/brightness" doc:"Attribute path"`
	Value     string `json:"value" example:"255" doc:"Value that could not be written"`
	Error     string `json:"error" example:"permission denied" doc:"Underlying error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SysfsWriteFailedEvent.
func (e SysfsWriteFailedEvent) Type() uint32 { return TypeSysfsWriteFailed }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
