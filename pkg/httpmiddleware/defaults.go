// Package httpmiddleware bundles the HTTP middleware stack used by the relay:
// correlation IDs, security headers, CORS, request logging, timeouts and
// panic recovery, applied to a chi router in a fixed order.
package httpmiddleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

// Config selects which middleware ApplyToRouter installs and how each piece
// is configured.
type Config struct {
	Logger      logger.Logger   // Required when EnableLogging is set
	StripPrefix string          // Path prefix to strip, e.g. "/api/v1"
	CORS        *CORSConfig     // nil disables CORS even when enabled
	Security    *secure.Options // nil uses the secure package defaults
	Timeout     time.Duration   // Request timeout

	EnableCorrelationID bool
	EnableLogging       bool
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableRealIP        bool
	EnableTimeout       bool
	EnableStripPrefix   bool
}

// DefaultConfig enables everything except request logging, which needs a
// Logger the caller has to supply.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:    &corsConfig,
		Timeout: 60 * time.Second,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableRealIP:        true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter installs the enabled middleware. Application order is
// execution order, outermost first: correlation ID before logging so every
// log line carries the ID, recovery after logging so a panic still gets a
// response log, timeout innermost so it bounds only handler work.
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}
	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}
	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}
	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}
	if config.EnableRecovery {
		router.Use(middleware.Recoverer)
	}
	if config.EnableStripPrefix && config.StripPrefix != "" {
		router.Use(StripPrefix(config.StripPrefix))
	}
	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}
	if config.EnableTimeout {
		router.Use(middleware.Timeout(config.Timeout))
	}
}

// WithLogger applies DefaultConfig with request logging wired to log.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
