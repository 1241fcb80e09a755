package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	lnats "github.com/smazurov/lightnode/internal/nats"
	"github.com/spf13/cobra"
)

// DefaultNATSURL points at the daemon's embedded server.
const DefaultNATSURL = "nats://127.0.0.1:4222"

// transportFlags are shared by commands that talk to a running daemon or,
// with --direct, drive the LEDs in-process.
type transportFlags struct {
	url      string
	timeout  time.Duration
	direct   bool
	ledsRoot string
	logJSON  bool
}

func (f *transportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "nats-url", DefaultNATSURL, "NATS server of the running daemon")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&f.direct, "direct", false, "Write sysfs directly instead of asking the daemon")
	cmd.Flags().StringVar(&f.ledsRoot, "leds-root", led.DefaultRoot, "LED class directory used with --direct")
	cmd.Flags().BoolVar(&f.logJSON, "log-json", false, "Use JSON log format")
}

// logger initializes minimal logging for one-shot commands.
func (f *transportFlags) logger() *slog.Logger {
	cfg := logging.Config{Level: "warn", Format: "text"}
	if f.logJSON {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
	return logging.GetLogger("cli")
}

func (f *transportFlags) dial(logger *slog.Logger) (*lnats.Client, error) {
	return lnats.Dial(f.url, f.timeout, logger)
}

func (f *transportFlags) local(logger *slog.Logger) *led.Light {
	return led.New(led.Config{Root: f.ledsRoot}, logger, nil)
}

func (f *transportFlags) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, f.timeout)
}

// ParseColor accepts 0xAARRGGBB, #AARRGGBB, #RRGGBB or a decimal value.
// Six-digit hex colors get a fully opaque alpha.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", s, err)
		}
		if len(hex) == 6 {
			v |= 0xFF000000
		}
		return uint32(v), nil
	}

	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}
