package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "json"})
}

func TestNewRegistersRelayCounters(t *testing.T) {
	m := New(testLogger())

	m.WebhookRequestsCounter.Inc()
	m.EventsReceivedCounter.Add(3)
	m.AIFallbacksCounter.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "relay_webhook_requests_total 1")
	assert.Contains(t, body, "relay_events_received_total 3")
	assert.Contains(t, body, "relay_ai_fallbacks_total 1")
	assert.Contains(t, body, "relay_replies_sent_total 0")
}

func TestRegisterCustomCollector(t *testing.T) {
	m := New(testLogger())

	custom := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_total", Help: "custom"})
	m.Register(custom)
	custom.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "custom_total 1")
}

func TestHistogramObserve(t *testing.T) {
	m := New(testLogger())
	m.HTTPDurationHistogram.Observe(0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "relay_http_request_duration_seconds_count 1")
}
