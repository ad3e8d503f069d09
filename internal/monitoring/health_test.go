package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel})
}

func TestLivenessHandler(t *testing.T) {
	hm := NewHealthMonitor(Config{Logger: testLogger(), Version: "test"})

	rec := httptest.NewRecorder()
	hm.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.NotEmpty(t, response["uptime"])
}

func TestReadinessHandler(t *testing.T) {
	t.Run("reachable dependencies", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized) // reachable is enough
		}))
		defer backend.Close()

		hm := NewHealthMonitor(Config{
			Logger:       testLogger(),
			AIBackendURL: backend.URL,
		})

		rec := httptest.NewRecorder()
		hm.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unreachable dependency beyond threshold", func(t *testing.T) {
		hm := NewHealthMonitor(Config{
			Logger:           testLogger(),
			AIBackendURL:     "http://127.0.0.1:1",
			FailureThreshold: 1,
		})

		rec := httptest.NewRecorder()
		hm.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "not_ready", response["status"])
	})
}

func TestHealthHandler(t *testing.T) {
	hm := NewHealthMonitor(Config{Logger: testLogger(), Version: "1.2.3"})

	rec := httptest.NewRecorder()
	hm.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "1.2.3", response["version"])
	assert.Contains(t, response, "liveness")
	assert.Contains(t, response, "readiness")
}

func TestRegisterRoutes(t *testing.T) {
	hm := NewHealthMonitor(Config{Logger: testLogger()})

	r := chi.NewRouter()
	hm.RegisterRoutes(r)

	for _, path := range []string{"/", "/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
