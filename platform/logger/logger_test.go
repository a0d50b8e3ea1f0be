package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &out); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return out
}

func TestRequestLevels(t *testing.T) {
	cases := []struct {
		name  string
		req   HTTPRequest
		level string
	}{
		{"ok", HTTPRequest{Status: 200}, "INFO"},
		{"client error", HTTPRequest{Status: 404}, "WARN"},
		{"server error", HTTPRequest{Status: 503}, "ERROR"},
		{"handler error", HTTPRequest{Status: 500, Err: errors.New("db down")}, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter("production", &buf)
			tc.req.Method = "GET"
			tc.req.Route = "/api/v1/deals/:id"
			tc.req.Latency = 42 * time.Millisecond
			log.Request(tc.req)

			line := lastLine(t, &buf)
			if line["level"] != tc.level {
				t.Fatalf("expected level %s, got %v", tc.level, line["level"])
			}
			if line["latency_ms"] != float64(42) {
				t.Fatalf("expected latency 42, got %v", line["latency_ms"])
			}
			if tc.req.Err != nil && line["error"] != tc.req.Err.Error() {
				t.Fatalf("expected error attr, got %v", line["error"])
			}
		})
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	log.WithContext(ctx).Info("hello")
	if got := lastLine(t, &buf)["request_id"]; got != "req-1" {
		t.Fatalf("expected request id, got %v", got)
	}

	log.WithContext(context.Background()).Info("plain")
	if _, ok := lastLine(t, &buf)["request_id"]; ok {
		t.Fatal("expected no request id outside a request")
	}
}
