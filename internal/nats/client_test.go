package nats

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/sysfs"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startServer runs an embedded server on a non-default port.
func startServer(t *testing.T, port int) *Server {
	t.Helper()
	server := NewServer(ServerOptions{
		Port:   port,
		Name:   "test-server",
		Logger: newTestLogger(),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

// startService wires a real dispatcher over a no-op sink.
func startService(t *testing.T, url string, bus *events.Bus) *led.Light {
	t.Helper()
	logger := newTestLogger()
	lights := led.NewLight(sysfs.NewNoop(logger), led.NewPaths(t.TempDir()), logger, led.WithEventBus(bus))

	service := NewService(url, lights, logger)
	if err := service.Start(); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}
	t.Cleanup(service.Stop)
	return lights
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	client, err := Dial(url, time.Second, newTestLogger())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(ServerOptions{
		Port:   14322,
		Logger: newTestLogger(),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if !server.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if server.ClientURL() == "" {
		t.Error("ClientURL should not be empty")
	}

	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
	if server.NumClients() != 0 {
		t.Error("NumClients should be 0 after Stop()")
	}
}

func TestDefaultServerOptions(t *testing.T) {
	server := NewServer(ServerOptions{})
	if got := server.ClientURL(); got != "nats://127.0.0.1:4222" {
		t.Errorf("ClientURL() before start = %q", got)
	}
}

func TestClientSetLight(t *testing.T) {
	server := startServer(t, 14323)
	lights := startService(t, server.ClientURL(), nil)
	client := dial(t, server.ClientURL())

	state := led.State{Color: 0xFF00FF00, FlashMode: led.FlashTimed, FlashOnMs: 500, FlashOffMs: 500}
	status, err := client.SetLight(testContext(t), "battery", state)
	if err != nil {
		t.Fatalf("SetLight() error: %v", err)
	}
	if status != led.Success {
		t.Errorf("SetLight() = %v, want SUCCESS", status)
	}

	if got, _ := lights.State(led.Battery); got != state {
		t.Errorf("dispatcher state = %+v, want %+v", got, state)
	}
}

func TestClientSetLightUnknownType(t *testing.T) {
	server := startServer(t, 14324)
	lights := startService(t, server.ClientURL(), nil)
	client := dial(t, server.ClientURL())

	status, err := client.SetLight(testContext(t), "keyboard", led.State{Color: 0xFFFFFFFF})
	if err != nil {
		t.Fatalf("SetLight() error: %v", err)
	}
	if status != led.LightNotSupported {
		t.Errorf("SetLight(keyboard) = %v, want LIGHT_NOT_SUPPORTED", status)
	}

	for _, typ := range lights.SupportedTypes() {
		if got, _ := lights.State(typ); got != (led.State{}) {
			t.Errorf("State(%v) changed to %+v", typ, got)
		}
	}
}

func TestServiceRejectsMalformedRequests(t *testing.T) {
	server := startServer(t, 14325)
	startService(t, server.ClientURL(), nil)

	conn, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	tests := map[string]string{
		"not json":      `{"type":`,
		"unknown flash": `{"type":"battery","color":255,"flash_mode":"strobe"}`,
		"negative off":  `{"type":"battery","color":255,"flash_mode":"timed","flash_on_ms":500,"flash_off_ms":-1}`,
		"off too long":  `{"type":"battery","color":255,"flash_mode":"timed","flash_on_ms":500,"flash_off_ms":3600001}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			msg, err := conn.Request(SubjectSetLight, []byte(payload), time.Second)
			if err != nil {
				t.Fatalf("Request() error: %v", err)
			}
			reply, err := UnmarshalSetLightReply(msg.Data)
			if err != nil {
				t.Fatal(err)
			}
			if reply.Error == "" || reply.Status != "" {
				t.Errorf("reply = %+v, want an error", reply)
			}
		})
	}

	// The client surfaces rejections as ErrRejected
	client := dial(t, server.ClientURL())
	_, err = client.SetLight(testContext(t), "battery", led.State{Color: 1, FlashMode: led.Flash(9)})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("SetLight() with bad flash error = %v, want ErrRejected", err)
	}
}

func TestClientSupportedTypes(t *testing.T) {
	server := startServer(t, 14326)
	startService(t, server.ClientURL(), nil)
	client := dial(t, server.ClientURL())

	types, err := client.SupportedTypes(testContext(t))
	if err != nil {
		t.Fatalf("SupportedTypes() error: %v", err)
	}

	want := []string{"attention", "notifications", "battery", "backlight"}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("SupportedTypes() = %v, want %v", types, want)
	}
}

func TestClientNoService(t *testing.T) {
	server := startServer(t, 14327)
	client := dial(t, server.ClientURL())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := client.SetLight(ctx, "battery", led.State{}); err == nil {
		t.Error("SetLight() without a service should fail")
	}
}

func TestDialUnavailable(t *testing.T) {
	if _, err := Dial("nats://127.0.0.1:59999", 200*time.Millisecond, newTestLogger()); err == nil {
		t.Error("Dial() should fail with non-existent server")
	}
}

func TestBridgePublishesStates(t *testing.T) {
	server := startServer(t, 14328)
	bus := events.New()
	lights := startService(t, server.ClientURL(), bus)

	bridge := NewBridge(server.ClientURL(), bus, newTestLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("bridge.Start() error: %v", err)
	}
	defer bridge.Stop()

	if !bridge.IsConnected() {
		t.Fatal("bridge should be connected")
	}

	client := dial(t, server.ClientURL())
	states := make(chan StateMessage, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watching := make(chan error, 1)
	go func() { watching <- client.WatchStates(ctx, func(m StateMessage) { states <- m }) }()

	// Give the subscription time to reach the server
	time.Sleep(100 * time.Millisecond)

	lights.SetLight(led.Attention, led.State{Color: 0xFFFFFFFF})
	lights.SetLight(led.Battery, led.State{Color: 0xFF00FF00})

	var got []StateMessage
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case m := <-states:
			got = append(got, m)
		case <-timeout:
			t.Fatalf("received %d states, want 2", len(got))
		}
	}

	for _, m := range got {
		if m.Type == "battery" && m.AppliedType != "attention" {
			t.Errorf("battery applied_type = %q, want attention", m.AppliedType)
		}
	}

	cancel()
	if err := <-watching; err != nil {
		t.Errorf("WatchStates() error: %v", err)
	}
}

func TestSubjects(t *testing.T) {
	tests := map[string]string{
		SubjectSetLight:       "lightnode.lights.set",
		SubjectTypes:          "lightnode.lights.types",
		SubjectState("green"): "lightnode.lights.state.green",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("subject = %q, want %q", got, want)
		}
	}
}

func TestSetLightRequestState(t *testing.T) {
	in := led.State{Color: 0x80FF0000, FlashMode: led.FlashHardware, FlashOnMs: 100, FlashOffMs: 900}
	req := NewSetLightRequest("notifications", in)

	if req.FlashMode != "hardware" {
		t.Errorf("FlashMode = %q, want hardware", req.FlashMode)
	}
	out, err := req.State()
	if err != nil || out != in {
		t.Errorf("State() = %+v, %v, want %+v", out, err, in)
	}

	// Omitted flash mode means steady
	out, err = SetLightRequest{Type: "battery", Color: 1}.State()
	if err != nil || out.FlashMode != led.FlashNone {
		t.Errorf("State() without flash mode = %+v, %v", out, err)
	}
}

func TestSetLightRequestFlashBounds(t *testing.T) {
	tests := []struct {
		name    string
		on, off int
		wantErr bool
	}{
		{"steady", 0, 0, false},
		{"max", led.MaxFlashMs, led.MaxFlashMs, false},
		{"negative on", -1, 100, true},
		{"negative off", 100, -1, true},
		{"on above max", led.MaxFlashMs + 1, 100, true},
		{"off above max", 100, led.MaxFlashMs + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SetLightRequest{Type: "battery", Color: 0xFF00FF00, FlashMode: "timed", FlashOnMs: tt.on, FlashOffMs: tt.off}
			_, err := req.State()
			if (err != nil) != tt.wantErr {
				t.Fatalf("State() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, led.ErrFlashRange) {
				t.Errorf("State() error = %v, want ErrFlashRange", err)
			}
		})
	}
}
