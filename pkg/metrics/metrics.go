// Package metrics provides Prometheus metrics collection for the webhook relay.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

const (
	subsystem = "relay"
)

// Metrics collects counters for the webhook relay pipeline: inbound webhook
// requests, per-event dispatch outcomes, and downstream call failures.
type Metrics struct {
	reg *prometheus.Registry

	WebhookRequestsCounter     prometheus.Counter
	SignatureRejectionsCounter prometheus.Counter
	EventsReceivedCounter      prometheus.Counter
	EventsSkippedCounter       prometheus.Counter
	AIFallbacksCounter         prometheus.Counter
	RepliesSentCounter         prometheus.Counter
	RepliesFailedCounter       prometheus.Counter

	HTTPDurationHistogram prometheus.Histogram

	log logger.Logger
}

// New creates a Metrics instance with all relay collectors registered.
func New(l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}

	m.WebhookRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "webhook_requests_total",
		Help:      "Total webhook deliveries received",
	})
	m.SignatureRejectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "signature_rejections_total",
		Help:      "Webhook deliveries rejected for invalid or missing signatures",
	})
	m.EventsReceivedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "events_received_total",
		Help:      "Events contained in accepted webhook deliveries",
	})
	m.EventsSkippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "events_skipped_total",
		Help:      "Events skipped because they are not text messages",
	})
	m.AIFallbacksCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "ai_fallbacks_total",
		Help:      "AI backend failures answered with the fallback text",
	})
	m.RepliesSentCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "replies_sent_total",
		Help:      "Replies successfully delivered to the messaging platform",
	})
	m.RepliesFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "replies_failed_total",
		Help:      "Replies dropped after the platform reply call failed",
	})
	m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "Inbound HTTP request duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1.0, 3.0, 5.0},
	})

	m.reg.MustRegister(
		m.WebhookRequestsCounter,
		m.SignatureRejectionsCounter,
		m.EventsReceivedCounter,
		m.EventsSkippedCounter,
		m.AIFallbacksCounter,
		m.RepliesSentCounter,
		m.RepliesFailedCounter,
		m.HTTPDurationHistogram,
	)

	return m
}

// Register adds a custom collector to the relay registry.
func (m *Metrics) Register(c prometheus.Collector) {
	m.reg.MustRegister(c)
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen serves the metrics endpoint on the given port until ctx is canceled.
func (m *Metrics) Listen(ctx context.Context, port int) error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))

	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		m.log.Info("Stopping metrics listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
