package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(model.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("run_id", "r1").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(model.LoggingConfig{Level: "debug", Format: "console"}, &buf)

	logger.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, parseLogLevel("trace"))
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("nonsense"))
}

func TestMetrics_Records(t *testing.T) {
	m := NewMetrics(true)
	require.NotNil(t, m)

	m.RunStarted()
	m.StageFinished("web_search", "", 10*time.Millisecond)
	m.StageFinished("web_search", "search", 10*time.Millisecond)
	m.SearchResults(3)
	m.TokenStreamed()
	m.TokenStreamed()
	m.CitationsDropped(2)
	m.RunFinished("completed", time.Second)
	m.HTTPRequest("/health", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsStarted))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsCompleted.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageErrors.WithLabelValues("web_search", "search")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokensStreamed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.citationsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/health", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(true)
	m.RunStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "claimcheck_runs_started_total 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.Nil(t, NewMetrics(false))

	assert.NotPanics(t, func() {
		m.RunStarted()
		m.RunFinished("failed", time.Second)
		m.StageFinished("x", "merge", time.Second)
		m.SearchResults(1)
		m.TokenStreamed()
		m.CitationsDropped(1)
		m.HTTPRequest("/", 500)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewTracerProvider_Export(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := NewTracerProvider(true, "test", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "fact_check")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "fact_check")
}

func TestNewTracerProvider_NoExport(t *testing.T) {
	shutdown, err := NewTracerProvider(false, "test", nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
