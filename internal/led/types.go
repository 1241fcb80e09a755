package led

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a light type name is not recognized.
var ErrUnknownType = errors.New("unknown light type")

// ErrUnknownFlash is returned when a flash mode name is not recognized.
var ErrUnknownFlash = errors.New("unknown flash mode")

// ErrFlashRange is returned for flash durations outside 0..MaxFlashMs.
var ErrFlashRange = errors.New("flash duration out of range")

// MaxFlashMs bounds flash_on_ms and flash_off_ms. The off time is written
// to pwm_us in microseconds, which keeps it below 2^32.
const MaxFlashMs = 3600000

// Type identifies a logical light.
type Type int

// Light types.
const (
	Backlight Type = iota
	Notifications
	Battery
	Attention
)

var typeNames = map[Type]string{
	Backlight:     "backlight",
	Notifications: "notifications",
	Battery:       "battery",
	Attention:     "attention",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType converts a type name (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Flash selects how a light blinks.
type Flash int

// Flash modes.
const (
	FlashNone Flash = iota
	FlashTimed
	FlashHardware
)

var flashNames = map[Flash]string{
	FlashNone:     "none",
	FlashTimed:    "timed",
	FlashHardware: "hardware",
}

func (f Flash) String() string {
	if name, ok := flashNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flash(%d)", int(f))
}

// ParseFlash converts a flash mode name (case-insensitive) to a Flash.
// An empty string means FlashNone.
func ParseFlash(s string) (Flash, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return FlashNone, nil
	}
	for f, n := range flashNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFlash, s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Flash) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flash) UnmarshalText(text []byte) error {
	parsed, err := ParseFlash(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// State is a requested light state.
// Color is packed as 0xAARRGGBB; the alpha byte scales indicator brightness.
type State struct {
	Color      uint32 `json:"color"`
	FlashMode  Flash  `json:"flash_mode"`
	FlashOnMs  int    `json:"flash_on_ms"`
	FlashOffMs int    `json:"flash_off_ms"`
}

// CheckFlash returns ErrFlashRange unless both durations are within 0..MaxFlashMs.
func (s State) CheckFlash() error {
	for _, ms := range []int{s.FlashOnMs, s.FlashOffMs} {
		if ms < 0 || ms > MaxFlashMs {
			return fmt.Errorf("%w: %d ms, want 0..%d", ErrFlashRange, ms, MaxFlashMs)
		}
	}
	return nil
}

// Lit reports whether the RGB part of the color is non-black.
func (s State) Lit() bool {
	return s.Color&0x00FFFFFF != 0
}

// Status is the result of a light request.
type Status int

// Request statuses.
const (
	Success Status = iota
	LightNotSupported
)

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case LightNotSupported:
		return "LIGHT_NOT_SUPPORTED"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus converts a status name such as "SUCCESS" back to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "SUCCESS":
		return Success, nil
	case "LIGHT_NOT_SUPPORTED":
		return LightNotSupported, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}
