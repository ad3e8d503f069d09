// Package server wires the relay's components together and manages the HTTP
// listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	appconfig "github.com/lewisedginton/webhook_relay/internal/config"
	"github.com/lewisedginton/webhook_relay/internal/dify"
	"github.com/lewisedginton/webhook_relay/internal/line"
	"github.com/lewisedginton/webhook_relay/internal/middleware"
	"github.com/lewisedginton/webhook_relay/internal/monitoring"
	"github.com/lewisedginton/webhook_relay/internal/relay"
	"github.com/lewisedginton/webhook_relay/internal/signature"
	"github.com/lewisedginton/webhook_relay/pkg/httpmiddleware"
	"github.com/lewisedginton/webhook_relay/pkg/logger"
	"github.com/lewisedginton/webhook_relay/pkg/metrics"
	"github.com/lewisedginton/webhook_relay/pkg/utils"
)

// WebhookPath is where the messaging platform delivers events.
const WebhookPath = "/webhook"

// Server encapsulates the relay's components and lifecycle management.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	handler *relay.Handler
	monitor *monitoring.HealthMonitor
	metrics *metrics.Metrics
	cancel  context.CancelFunc
}

// New creates a Server with all components initialized. It fails fast on any
// configuration the downstream clients reject, so a misconfigured process
// never starts listening.
func New(cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	if cfg.Monitoring.MetricsEnabled {
		s.metrics = metrics.New(log)
	}

	aiClient, err := dify.NewClient(dify.Config{
		APIKey:  cfg.Dify.APIKey,
		BaseURL: cfg.Dify.APIBaseURL,
		Timeout: cfg.Dify.Timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI backend client: %w", err)
	}

	lineClient, err := line.NewClient(line.Config{
		ChannelToken:  cfg.Line.ChannelToken,
		ReplyEndpoint: cfg.Line.ReplyEndpoint,
		Timeout:       cfg.Line.Timeout,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}

	s.handler, err = relay.NewHandler(relay.Config{
		Verifier:    signature.NewVerifier(cfg.Line.ChannelSecret),
		AIBackend:   aiClient,
		Replier:     lineClient,
		Metrics:     s.metrics,
		Logger:      log,
		MaxBodySize: cfg.Security.MaxRequestSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook handler: %w", err)
	}

	s.monitor = monitoring.NewHealthMonitor(monitoring.Config{
		Logger:           log,
		AIBackendURL:     cfg.Dify.APIBaseURL,
		PlatformURL:      cfg.Line.ReplyEndpoint,
		Version:          cfg.Version,
		Timeout:          cfg.Health.Timeout,
		FailureThreshold: cfg.Health.FailureThreshold,
	})

	return s, nil
}

// Run starts the HTTP listeners and blocks until a shutdown signal arrives or
// a listener fails.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	listenerErrs := []chan error{
		s.startMainListener(ctx),
	}
	if s.cfg.Monitoring.MetricsEnabled {
		listenerErrs = append(listenerErrs, s.startMetricsListener(ctx))
	}

	var runErr error
	for err := range utils.MergeErrorChans(listenerErrs...) {
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Listener failed", logger.ErrorField(err))
			if runErr == nil {
				runErr = err
			}
			cancel()
		}
	}

	// Let in-flight event processing drain before the process exits.
	s.log.Info("Waiting for in-flight events to finish")
	s.handler.Wait()

	s.log.Info("Server stopped")
	return runErr
}

// router builds the main HTTP surface: health probes and the webhook
// endpoint, wrapped in the shared middleware stack.
func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = s.log
	mwConfig.EnableLogging = true
	mwConfig.Timeout = s.cfg.RequestTimeout
	// The dispatch pipeline recovers panics in its own goroutines; this
	// handles only the synchronous request path.
	mwConfig.EnableRecovery = false
	httpmiddleware.ApplyToRouter(r, mwConfig)

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = s.log
	r.Use(middleware.Recovery(recoveryConfig))

	if s.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				start := time.Now()
				next.ServeHTTP(w, req)
				s.metrics.HTTPDurationHistogram.Observe(time.Since(start).Seconds())
			})
		})
	}

	if s.cfg.Health.Enabled {
		r.Get("/", s.monitor.LivenessHandler())
		r.Get(s.cfg.Health.CombinedPath, s.monitor.HealthHandler())
		r.Get(s.cfg.Health.LivenessPath, s.monitor.LivenessHandler())
		r.Get(s.cfg.Health.ReadinessPath, s.monitor.ReadinessHandler())
	}

	r.Post(WebhookPath, s.handler.ServeHTTP)

	return r
}

func (s *Server) startMainListener(ctx context.Context) chan error {
	errChan := make(chan error, 1)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(errChan)

		serveErr := make(chan error, 1)
		go func() {
			s.log.Info("Starting HTTP listener",
				logger.IntField("port", s.cfg.Port),
				logger.StringField("webhook_path", WebhookPath))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			errChan <- err
		case <-ctx.Done():
			s.log.Info("Shutting down HTTP listener")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			errChan <- server.Shutdown(shutdownCtx)
		}
	}()

	return errChan
}

func (s *Server) startMetricsListener(ctx context.Context) chan error {
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		errChan <- s.metrics.Listen(ctx, s.cfg.Monitoring.MetricsPort)
	}()

	return errChan
}

// setupGracefulShutdown cancels the run context on SIGINT/SIGTERM and force
// exits if shutdown stalls.
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		if s.cancel != nil {
			s.cancel()
		}

		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to shutdown timeout")
			os.Exit(1)
		})
	}()
}
