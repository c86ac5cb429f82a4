package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{env: "DEBUG", want: slog.LevelDebug},
		{env: "info", want: slog.LevelInfo},
		{env: "WARN", want: slog.LevelWarn},
		{env: "ERROR", want: slog.LevelError},
		{env: "", want: slog.LevelWarn},
		{env: "verbose", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			assert.Equal(t, tt.want, LogLevel(slog.LevelWarn))
		})
	}
}

func TestSetupLogger_WritesToWriter(t *testing.T) {
	t.Setenv("LOG_LEVEL", "INFO")
	t.Setenv("LOG_FORMAT", "json")
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := SetupLogger(&buf)
	WithRequestID(logger, "req-1").Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}

func TestSetupLogger_DefaultLevelHidesInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "text")
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := SetupLogger(&buf)
	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestLoggerContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestMetrics_InstrumentRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics()
	client := &http.Client{Transport: m.InstrumentRoundTripper(nil)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("200", "get")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_ObserveOperation(t *testing.T) {
	m := NewMetrics()

	m.ObserveOperation("deploy", nil)
	m.ObserveOperation("deploy", errors.New("boom"))
	m.ObserveOperation("deploy", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("deploy", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("deploy", ResultError)))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("list", nil)

	path := filepath.Join(t.TempDir(), "n8n_deploy.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `n8n_deploy_operations_total{operation="list",result="success"} 1`)

	// Пустой путь — ничего не пишем
	assert.NoError(t, m.WriteTextfile(""))
}
