package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GlobalLogger
	GlobalLogger = NewLogger(&buf, level)
	t.Cleanup(func() { GlobalLogger = prev })
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ExtractCorrelationID(ctx))

	ctx = WithCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", ExtractCorrelationID(ctx))
}

func TestComponentLogger(t *testing.T) {
	buf := captureLogs(t, "info")
	log := NewComponentLogger("gateway")
	ctx := WithCorrelationID(context.Background(), "corr-1")

	log.Debug(ctx, "hidden at info level")
	log.Error(ctx, errors.New("boom"), "request failed", slog.String("route", "/posts"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "request failed", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "gateway", rec["component"])
	assert.Equal(t, "corr-1", rec["correlation_id"])
	assert.Equal(t, "/posts", rec["route"])
	assert.Equal(t, "boom", rec["error"])
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{
		0:   "transport_error",
		200: "2xx",
		201: "2xx",
		401: "401",
		404: "4xx",
		503: "5xx",
	}
	for status, want := range tests {
		assert.Equal(t, want, StatusLabel(status), "status %d", status)
	}
}

func TestTrackRequest(t *testing.T) {
	counter := GatewayRequests.WithLabelValues("GET", "/track-test", "2xx")
	before := testutil.ToFloat64(counter)

	TrackRequest("GET", "/track-test")(200)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "vibeclient-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := Tracer.Start(context.Background(), "noop")
	RecordError(span, errors.New("ignored"))
	span.End()
}
