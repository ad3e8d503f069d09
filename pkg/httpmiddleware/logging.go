package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

// HTTPLogger logs one line when a request arrives and one when the response
// is sent, both tagged with the request's correlation ID.
type HTTPLogger struct {
	logger logger.Logger
}

// NewHTTPLogger creates the request logging middleware.
func NewHTTPLogger(log logger.Logger) *HTTPLogger {
	return &HTTPLogger{logger: log}
}

// Middleware is the http.Handler wrapper. It relies on the correlation
// middleware running first so the header is always populated.
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqLog := h.logger.WithFields(
			logger.ClientIPField(r.RemoteAddr),
			logger.HTTPMethodField(r.Method),
			logger.HTTPPathField(r.URL.Path),
			logger.CorrelationIDField(r.Header.Get(logger.CorrelationIDHeader)),
		)
		reqLog.Info("HTTP request received")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		reqLog.Info("HTTP response sent",
			logger.HTTPStatusField(ww.Status()),
			logger.IntField("response_bytes", ww.BytesWritten()),
			logger.DurationField("duration", time.Since(start)))
	})
}
