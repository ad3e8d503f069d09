package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

// CorrelationID tags every request with a fresh UUID, in both the header and
// the request context. Client-supplied IDs are replaced, not trusted: the
// inbound caller here is a webhook platform, and letting it pick our log
// correlation keys invites spoofed cross-request joins.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			r.Header.Set(logger.CorrelationIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.WithCorrelationIDContext(r.Context(), id)))
		})
	}
}
