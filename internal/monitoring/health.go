// Package monitoring exposes liveness, readiness, and combined health
// endpoints for the relay service.
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/webhook_relay/pkg/health"
	"github.com/lewisedginton/webhook_relay/pkg/health/checkers"
	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusReady     = "ready"
	statusNotReady  = "not_ready"
)

// Config holds configuration for the health monitor.
type Config struct {
	Logger           logger.Logger
	AIBackendURL     string // Optional: AI backend base URL for readiness probing
	PlatformURL      string // Optional: messaging platform API URL for readiness probing
	Version          string
	Timeout          time.Duration // Health check timeout
	FailureThreshold int           // Consecutive failures before reporting unhealthy
}

// HealthMonitor manages the relay's health checks and their HTTP endpoints.
type HealthMonitor struct {
	checker   *health.HealthChecker
	logger    logger.Logger
	version   string
	startTime time.Time
}

// NewHealthMonitor creates a health monitor with the relay's standard checks:
// a trivial process liveness check, and HTTP reachability checks against the
// AI backend and the messaging platform for readiness.
func NewHealthMonitor(cfg Config) *HealthMonitor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 3
	}

	checker := health.New(
		health.WithLogger(cfg.Logger),
		health.WithTimeout(timeout),
		health.WithFailureThreshold(failureThreshold),
	)

	checker.AddLivenessCheck(health.NewCheckFunc("process", func(ctx context.Context) error {
		return nil
	}))

	if cfg.AIBackendURL != "" {
		checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.AIBackendURL, "ai_backend"))
	}
	if cfg.PlatformURL != "" {
		checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.PlatformURL, "messaging_platform"))
	}

	return &HealthMonitor{
		checker:   checker,
		logger:    cfg.Logger,
		version:   cfg.Version,
		startTime: time.Now(),
	}
}

// LivenessHandler serves liveness probes: 200 when the process can execute
// its checks, 503 otherwise.
func (hm *HealthMonitor) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := hm.checker.CheckLiveness(r.Context())

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"checks":    status.Checks,
		}

		if err != nil {
			response["status"] = statusUnhealthy
			response["error"] = err.Error()
			hm.logger.Error("Liveness check failed", logger.ErrorField(err))
		}

		hm.writeJSON(w, response, err == nil)
	}
}

// ReadinessHandler serves readiness probes: 200 when downstream dependencies
// are reachable, 503 otherwise.
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := hm.checker.CheckReadiness(r.Context())

		response := map[string]interface{}{
			"status":    statusReady,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    status.Checks,
		}

		if err != nil {
			response["status"] = statusNotReady
			response["error"] = err.Error()
			hm.logger.Error("Readiness check failed", logger.ErrorField(err))
		}

		hm.writeJSON(w, response, err == nil)
	}
}

// HealthHandler serves a combined report of both probe groups.
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		livenessStatus, livenessErr := hm.checker.CheckLiveness(r.Context())
		readinessStatus, readinessErr := hm.checker.CheckReadiness(r.Context())

		liveness := map[string]interface{}{
			"status": statusHealthy,
			"checks": livenessStatus.Checks,
		}
		if livenessErr != nil {
			liveness["status"] = statusUnhealthy
			liveness["error"] = livenessErr.Error()
		}

		readiness := map[string]interface{}{
			"status": statusReady,
			"checks": readinessStatus.Checks,
		}
		if readinessErr != nil {
			readiness["status"] = statusNotReady
			readiness["error"] = readinessErr.Error()
		}

		healthy := livenessErr == nil && readinessErr == nil
		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"version":   hm.version,
			"liveness":  liveness,
			"readiness": readiness,
		}
		if !healthy {
			response["status"] = statusUnhealthy
		}

		hm.writeJSON(w, response, healthy)
	}
}

// RegisterRoutes mounts the health endpoints on the given router. The root
// path doubles as a cheap liveness probe for platforms that only probe "/".
func (hm *HealthMonitor) RegisterRoutes(r chi.Router) {
	r.Get("/", hm.LivenessHandler())
	r.Get("/health", hm.HealthHandler())
	r.Get("/health/live", hm.LivenessHandler())
	r.Get("/health/ready", hm.ReadinessHandler())
}

func (hm *HealthMonitor) writeJSON(w http.ResponseWriter, response map[string]interface{}, healthy bool) {
	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(response)
}
