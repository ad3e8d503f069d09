package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/lewisedginton/webhook_relay/internal/config"
	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

func testConfig() *appconfig.AppConfig {
	cfg := &appconfig.AppConfig{
		ServiceName:    "webhook-relay",
		Version:        "test",
		Environment:    "development",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
	}
	cfg.Line.ChannelSecret = "secret"
	cfg.Line.ChannelToken = "token"
	cfg.Line.Timeout = 15 * time.Second
	cfg.Dify.APIKey = "api-key"
	cfg.Dify.Timeout = 30 * time.Second
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "json"
	cfg.Health.Enabled = true
	cfg.Health.CombinedPath = "/health"
	cfg.Health.LivenessPath = "/health/live"
	cfg.Health.ReadinessPath = "/health/ready"
	cfg.Health.Timeout = time.Second
	cfg.Health.FailureThreshold = 3
	cfg.Security.MaxRequestSize = 1 << 20
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel})
	s, err := New(testConfig(), log)
	require.NoError(t, err)
	return s
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel})

	t.Run("missing AI backend key", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dify.APIKey = ""
		_, err := New(cfg, log)
		assert.Error(t, err)
	})

	t.Run("missing channel token", func(t *testing.T) {
		cfg := testConfig()
		cfg.Line.ChannelToken = ""
		_, err := New(cfg, log)
		assert.Error(t, err)
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	router := s.router()

	for _, path := range []string{"/", "/health", "/health/live"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterWebhookRequiresSignature(t *testing.T) {
	s := newTestServer(t)
	router := s.router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(`{"events":[]}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterHealthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Health.Enabled = false

	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel})
	s, err := New(cfg, log)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
