package api

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/sysfs"
)

const (
	testUser = "admin"
	testPass = "secret"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestServer wires a real dispatcher over a no-op sink.
func newTestServer(t *testing.T, auth bool) (*Server, *events.Bus) {
	t.Helper()
	bus := events.New()
	logger := newTestLogger()
	lights := led.NewLight(sysfs.NewNoop(logger), led.NewPaths(t.TempDir()), logger, led.WithEventBus(bus))

	opts := &Options{
		Lights:            lights,
		EventBus:          bus,
		PrometheusHandler: promhttp.Handler(),
	}
	if auth {
		opts.AuthUsername = testUser
		opts.AuthPassword = testPass
	}
	return NewServer(opts), bus
}

func basicAuthHeader(user, pass string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestHealthNoAuth(t *testing.T) {
	server, _ := newTestServer(t, true)
	api := humatest.Wrap(t, server.API())

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("GET /api/health = %d, want 200", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", resp.Body.String())
	}

	resp = api.Get("/api/version")
	if resp.Code != http.StatusOK {
		t.Fatalf("GET /api/version = %d, want 200", resp.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	server, _ := newTestServer(t, true)
	api := humatest.Wrap(t, server.API())

	tests := []struct {
		name string
		args []any
		want int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong password", []any{basicAuthHeader(testUser, "nope")}, http.StatusUnauthorized},
		{"bearer", []any{"Authorization: Bearer abc"}, http.StatusUnauthorized},
		{"not base64", []any{"Authorization: Basic %%%"}, http.StatusUnauthorized},
		{"valid", []any{basicAuthHeader(testUser, testPass)}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Get("/api/lights", tt.args...)
			if resp.Code != tt.want {
				t.Errorf("GET /api/lights = %d, want %d", resp.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && resp.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestBasicAuthQueryParameter(t *testing.T) {
	server, _ := newTestServer(t, true)
	api := humatest.Wrap(t, server.API())

	token := base64.StdEncoding.EncodeToString([]byte(testUser + ":" + testPass))
	if resp := api.Get("/api/lights?auth=" + token); resp.Code != http.StatusOK {
		t.Errorf("GET /api/lights?auth= = %d, want 200", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/lights/battery", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPut) {
		t.Errorf("Allow-Methods = %q, want PUT listed", got)
	}
}

func TestCORSOriginOverride(t *testing.T) {
	server := NewServer(&Options{CORSOrigin: "http://device.local"})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://device.local" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, true)
	api := humatest.Wrap(t, server.API())

	// Drive at least one request through the dispatcher so the counters exist
	api.Put("/api/lights/battery", basicAuthHeader(testUser, testPass), map[string]any{"color": 0x00FF00})

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200 without auth", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "lightnode_led_set_light_total") {
		t.Error("metrics output missing lightnode_led_set_light_total")
	}
}

func TestNoLightController(t *testing.T) {
	server := NewServer(&Options{})
	api := humatest.Wrap(t, server.API())

	if resp := api.Get("/api/lights"); resp.Code == http.StatusOK {
		t.Error("GET /api/lights should not be routed without a controller")
	}
	if resp := api.Get("/api/health"); resp.Code != http.StatusOK {
		t.Errorf("GET /api/health = %d, want 200", resp.Code)
	}
}
