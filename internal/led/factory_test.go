package led

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/events"
)

// fakeLEDTree creates the attribute files of the board under a temp dir.
func fakeLEDTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, attr := range []string{"lcd-backlight/brightness", "green/brightness", "green/pwm_us"} {
		path := filepath.Join(root, attr)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error: %v", err)
		}
		if err := os.WriteFile(path, []byte("0"), 0o644); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}
	}
	return root
}

func readAttr(t *testing.T, root, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, attr))
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", attr, err)
	}
	return string(data)
}

func TestNew_WritesSysfs(t *testing.T) {
	root := fakeLEDTree(t)
	l := New(Config{Root: root}, newTestLogger(), nil)

	if status := l.SetLight(Battery, State{Color: 0xFF00FF00, FlashMode: FlashTimed, FlashOnMs: 500, FlashOffMs: 500}); status != Success {
		t.Fatalf("SetLight() = %v", status)
	}
	if got := readAttr(t, root, "green/brightness"); got != "127" {
		t.Errorf("green/brightness = %q, want 127", got)
	}
	if got := readAttr(t, root, "green/pwm_us"); got != "500000" {
		t.Errorf("green/pwm_us = %q, want 500000", got)
	}

	l.SetLight(Backlight, State{Color: 0x00FFABCD})
	if got := readAttr(t, root, "lcd-backlight/brightness"); got != "205" {
		t.Errorf("lcd-backlight/brightness = %q, want 205", got)
	}
}

func TestNew_MissingRootUsesNoop(t *testing.T) {
	root := filepath.Join(t.TempDir(), "leds")
	l := New(Config{Root: root}, newTestLogger(), nil)

	// Should not panic and still report success
	if status := l.SetLight(Attention, State{Color: 0xFFFFFFFF}); status != Success {
		t.Errorf("SetLight() = %v, want SUCCESS", status)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("no-op sink should not create %s", root)
	}
}

func TestNew_WriteFailurePublishesEvent(t *testing.T) {
	root := fakeLEDTree(t)
	// Remove the PWM attribute so that write fails
	if err := os.Remove(filepath.Join(root, "green", "pwm_us")); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	bus := events.New()
	failures := make(chan events.SysfsWriteFailedEvent, 4)
	unsub := bus.Subscribe(func(e events.SysfsWriteFailedEvent) {
		failures <- e
	})
	defer unsub()

	l := New(Config{Root: root}, newTestLogger(), bus)

	// Failure is never surfaced to the caller
	if status := l.SetLight(Notifications, State{Color: 0x00FFFFFF}); status != Success {
		t.Fatalf("SetLight() = %v, want SUCCESS", status)
	}

	select {
	case e := <-failures:
		if filepath.Base(e.Path) != "pwm_us" || e.Value != "100" {
			t.Errorf("unexpected failure event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for SysfsWriteFailedEvent")
	}

	// Cache stays consistent with the request
	if got, _ := l.State(Notifications); got.Color != 0x00FFFFFF {
		t.Errorf("State(Notifications).Color = %#08x", got.Color)
	}
	if got := readAttr(t, root, "green/brightness"); got != "255" {
		t.Errorf("green/brightness = %q, want 255", got)
	}
}

func TestDetectBoard(t *testing.T) {
	model := detectBoard()

	// Should return a non-empty string (or "unknown")
	if model == "" {
		t.Error("detectBoard() returned empty string")
	}
}
