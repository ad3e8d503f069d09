// Package health runs liveness and readiness probes. A check only reports
// unhealthy after a configurable streak of consecutive failures, so a single
// upstream blip does not flap the probe endpoints.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

// Check is a single named probe. A nil return means healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function into a Check.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc wraps fn as a named Check.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the check's name.
func (c *CheckFunc) Name() string { return c.name }

// Check runs the wrapped function.
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult is the outcome of one check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus aggregates the results of a probe group.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker holds the registered liveness and readiness checks and the
// per-check consecutive-failure bookkeeping.
type HealthChecker struct {
	livenessChecks   []Check
	readinessChecks  []Check
	timeout          time.Duration
	failStreaks      map[string]int
	failureThreshold int
	logger           logger.Logger
	mu               sync.RWMutex
}

// Option configures a HealthChecker.
type Option func(*HealthChecker)

// WithTimeout sets the per-check execution timeout. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) { h.timeout = d }
}

// WithLogger sets the logger used for check outcomes.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) { h.logger = l }
}

// WithFailureThreshold sets how many consecutive failures a check needs
// before it reports unhealthy. Default 3; non-positive values are ignored.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New creates a HealthChecker.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failStreaks:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *HealthChecker) AddLivenessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, check)
}

// AddReadinessCheck registers a check that decides whether the service can
// take traffic.
func (h *HealthChecker) AddReadinessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, check)
}

// CheckLiveness runs the liveness group. The returned status always carries
// per-check results; the error is non-nil when any check is unhealthy.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := h.livenessChecks
	h.mu.RUnlock()
	return h.runGroup(ctx, checks)
}

// CheckReadiness runs the readiness group.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()
	return h.runGroup(ctx, checks)
}

// runGroup executes a probe group concurrently and folds the results.
// An empty group is healthy: a service with nothing to probe has nothing
// broken.
func (h *HealthChecker) runGroup(ctx context.Context, checks []Check) (*HealthStatus, error) {
	status := &HealthStatus{Healthy: true, Checks: make([]CheckResult, len(checks))}
	if len(checks) == 0 {
		return status, nil
	}

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			status.Checks[idx] = h.runCheck(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	var failed []string
	for _, result := range status.Checks {
		if !result.Healthy {
			failed = append(failed, result.Name)
		}
	}
	if len(failed) > 0 {
		status.Healthy = false
		return status, fmt.Errorf("health checks failed: %v", failed)
	}
	return status, nil
}

// runCheck executes one check under the configured timeout and applies the
// failure-streak logic.
func (h *HealthChecker) runCheck(parentCtx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parentCtx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failStreaks[check.Name()] = 0
		if h.logger != nil {
			h.logger.Debug("Health check passed",
				logger.StringField("check", check.Name()),
				logger.DurationField("latency", latency))
		}
		return CheckResult{Name: check.Name(), Healthy: true, Latency: latency}
	}

	h.failStreaks[check.Name()]++
	streak := h.failStreaks[check.Name()]

	if streak < h.failureThreshold {
		// Still inside the tolerated streak; report healthy.
		if h.logger != nil {
			h.logger.Debug("Health check failed below threshold",
				logger.StringField("check", check.Name()),
				logger.StringField("error", err.Error()),
				logger.IntField("failures", streak),
				logger.IntField("threshold", h.failureThreshold))
		}
		return CheckResult{Name: check.Name(), Healthy: true, Latency: latency}
	}

	if h.logger != nil {
		h.logger.Warn("Health check failed",
			logger.StringField("check", check.Name()),
			logger.StringField("error", err.Error()),
			logger.IntField("failures", streak),
			logger.DurationField("latency", latency))
	}
	return CheckResult{Name: check.Name(), Healthy: false, Error: err.Error(), Latency: latency}
}
