package led

import "path/filepath"

// DefaultRoot is the LED class directory.
const DefaultRoot = "/sys/class/leds"

const (
	maxBrightness = 255
	// the driver ignores the low 4 bits of the duty value
	minDuty = 16
	// pwm_us value for a steady LED
	idlePWM = 100
)

// Paths holds the attribute files driven by the dispatcher.
type Paths struct {
	Backlight           string
	IndicatorBrightness string
	IndicatorPWM        string
}

// NewPaths builds attribute paths under root. An empty root means DefaultRoot.
// The green LED node drives the white notification LED on this board.
func NewPaths(root string) Paths {
	if root == "" {
		root = DefaultRoot
	}
	return Paths{
		Backlight:           filepath.Join(root, "lcd-backlight", "brightness"),
		IndicatorBrightness: filepath.Join(root, "green", "brightness"),
		IndicatorPWM:        filepath.Join(root, "green", "pwm_us"),
	}
}

// Write is a single attribute write.
type Write struct {
	Path  string
	Value int
}

// handler selects the encoding for a group of light types sharing one LED.
type handler int

const (
	handlerBacklight handler = iota
	handlerIndicator
)

func (h handler) encode(p Paths, s State) []Write {
	switch h {
	case handlerBacklight:
		return encodeBacklight(p, s)
	default:
		return encodeIndicator(p, s)
	}
}

func encodeBacklight(p Paths, s State) []Write {
	return []Write{{Path: p.Backlight, Value: int(s.Color & 0xFF)}}
}

func encodeIndicator(p Paths, s State) []Write {
	if !s.Lit() {
		return []Write{{Path: p.IndicatorBrightness, Value: 0}}
	}

	// reset any running pulse before applying the new pattern
	writes := []Write{{Path: p.IndicatorBrightness, Value: 0}}

	if duty, ok := dutyCycle(s); ok {
		return append(writes,
			Write{Path: p.IndicatorBrightness, Value: duty},
			Write{Path: p.IndicatorPWM, Value: s.FlashOffMs * 1000},
		)
	}

	return append(writes,
		Write{Path: p.IndicatorBrightness, Value: baseBrightness(s.Color)},
		Write{Path: p.IndicatorPWM, Value: idlePWM},
	)
}

// baseBrightness returns the alpha byte, or full scale when alpha is zero.
func baseBrightness(color uint32) int {
	if alpha := int(color >> 24); alpha != 0 {
		return alpha
	}
	return maxBrightness
}

// dutyCycle maps on/(on+off) onto 0..255. ok is false when the state
// does not blink, including non-positive durations.
func dutyCycle(s State) (duty int, ok bool) {
	if s.FlashMode != FlashTimed && s.FlashMode != FlashHardware {
		return 0, false
	}
	if s.FlashOnMs <= 0 || s.FlashOffMs <= 0 {
		return 0, false
	}

	on, off := int64(s.FlashOnMs), int64(s.FlashOffMs)
	duty = int(on * maxBrightness / (on + off))
	if duty > 0 && duty < minDuty {
		duty = minDuty
	}
	return duty, true
}
