// Package middleware provides HTTP middleware specific to the relay's
// webhook surface.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger           logger.Logger
	EnableStackTrace bool   // Whether to log full stack traces
	ResponseMessage  string // Body returned to clients on panic
}

// DefaultRecoveryConfig returns a sensible default configuration.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		ResponseMessage:  `{"error":"Internal server error"}`,
	}
}

// Recovery catches panics on the synchronous request path, logs them, and
// answers 500. Panics inside detached event-processing goroutines never
// reach this middleware; the dispatch pipeline recovers those itself.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				logPanic(config, r, rec)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusInternalServerError)
				if config.ResponseMessage != "" {
					_, _ = w.Write([]byte(config.ResponseMessage))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(config RecoveryConfig, r *http.Request, rec interface{}) {
	if config.Logger == nil {
		fmt.Printf("PANIC: %v on %s %s\n", rec, r.Method, r.URL.Path)
		return
	}

	fields := []logger.LogField{
		logger.Field("panic_error", rec),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(getClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
	}
	if config.EnableStackTrace {
		fields = append(fields, logger.StringField("stack_trace", string(debug.Stack())))
	}
	if r.ContentLength > 0 {
		fields = append(fields, logger.Int64Field("content_length", r.ContentLength))
	}

	config.Logger.Error("HTTP request panic recovered", fields...)
}

// getClientIP prefers proxy-added headers over the socket address. The first
// entry of X-Forwarded-For is the original client when the proxy chain is
// trusted, which it is in this deployment (platform -> LB -> relay).
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
