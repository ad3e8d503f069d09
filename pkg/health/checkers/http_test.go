package checkers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPChecker(t *testing.T) {
	t.Run("healthy endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		checker := NewHTTPChecker(srv.URL, "test")
		assert.Equal(t, "test", checker.Name())
		assert.NoError(t, checker.Check(context.Background()))
	})

	t.Run("4xx is still reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		checker := NewHTTPChecker(srv.URL, "")
		assert.Equal(t, srv.URL, checker.Name())
		assert.NoError(t, checker.Check(context.Background()))
	})

	t.Run("5xx is unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		checker := NewHTTPChecker(srv.URL, "failing")
		assert.Error(t, checker.Check(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		checker := NewHTTPCheckerWithClient("http://127.0.0.1:1", "unreachable", &http.Client{Timeout: 100 * time.Millisecond})
		assert.Error(t, checker.Check(context.Background()))
	})
}
