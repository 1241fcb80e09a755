package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/logging"
)

type sseMessage struct {
	event string
	data  string
}

// readSSE parses the stream into messages until the body closes.
func readSSE(body *bufio.Scanner, out chan<- sseMessage) {
	var msg sseMessage
	for body.Scan() {
		line := body.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			msg.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			msg.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if msg.data != "" {
				out <- msg
			}
			msg = sseMessage{}
		}
	}
	close(out)
}

func openStream(t *testing.T, ts *httptest.Server, path string) <-chan sseMessage {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	token := base64.StdEncoding.EncodeToString([]byte(testUser + ":" + testPass))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+path+"?auth="+token, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", path, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	messages := make(chan sseMessage, 32)
	go readSSE(bufio.NewScanner(resp.Body), messages)
	return messages
}

func waitFor(t *testing.T, messages <-chan sseMessage, event string) sseMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				t.Fatalf("stream closed before %q", event)
			}
			if msg.event == event {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

func TestEventsStream(t *testing.T) {
	server, bus := newTestServer(t, true)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	messages := openStream(t, ts, "/api/events")
	waitFor(t, messages, "connected")

	body := bytes.NewBufferString(`{"color":4294967295}`)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/lights/attention", body)
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(testUser, testPass)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()

	msg := waitFor(t, messages, "light-state-changed")
	var changed events.LightStateChangedEvent
	if err := json.Unmarshal([]byte(msg.data), &changed); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", msg.data, err)
	}
	if changed.LightType != "attention" || changed.AppliedType != "attention" || changed.Color != 0xFFFFFFFF {
		t.Errorf("unexpected event: %+v", changed)
	}

	bus.Publish(events.SysfsWriteFailedEvent{Path: "/sys/class/leds/green/pwm_us", Value: "100", Error: "permission denied"})
	msg = waitFor(t, messages, "sysfs-write-failed")
	if !strings.Contains(msg.data, "permission denied") {
		t.Errorf("sysfs-write-failed data = %s", msg.data)
	}
}

func TestEventsStreamRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t, true)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/events = %d, want 401", resp.StatusCode)
	}
}

func TestLogStream(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	logging.GetLogger("led").Info("history entry before connect")

	server, bus := newTestServer(t, true)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	messages := openStream(t, ts, "/api/logs/stream")

	// History comes first
	deadline := time.After(2 * time.Second)
	for found := false; !found; {
		select {
		case msg := <-messages:
			found = strings.Contains(msg.data, "history entry before connect")
		case <-deadline:
			t.Fatal("history entry not replayed")
		}
	}

	// Live entries are forwarded from the bus
	bus.Publish(events.LogEntryEvent{Level: "warn", Module: "led", Message: "live entry"})
	deadline = time.After(2 * time.Second)
	for found := false; !found; {
		select {
		case msg := <-messages:
			found = strings.Contains(msg.data, "live entry")
		case <-deadline:
			t.Fatal("live entry not streamed")
		}
	}
}

func TestLogEvent(t *testing.T) {
	ts := time.Date(2025, 1, 9, 10, 30, 0, 0, time.UTC)
	e := LogEvent(logging.LogEntry{Seq: 7, Timestamp: ts, Level: "info", Module: "nats", Message: "hello"})

	if e.Seq != 7 || e.Module != "nats" || e.Message != "hello" || e.Timestamp != "2025-01-09T10:30:00Z" {
		t.Errorf("LogEvent() = %+v", e)
	}
}
