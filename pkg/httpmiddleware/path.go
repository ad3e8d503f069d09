package httpmiddleware

import (
	"net/http"
	"strings"
)

// StripPrefix removes a path prefix before routing, for deployments that
// mount the service behind a gateway path. The prefix must end on a segment
// boundary: "/api/v1" strips from "/api/v1/webhook" but leaves
// "/api/v1beta/webhook" alone.
func StripPrefix(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if prefix == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest, found := strings.CutPrefix(r.URL.Path, prefix)
			if found && (rest == "" || rest[0] == '/') {
				r.URL.Path = rest
			}
			next.ServeHTTP(w, r)
		})
	}
}
