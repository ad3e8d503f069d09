package dify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		c, err := NewClient(Config{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, defaultBaseURL, c.baseURL)
		assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	})
}

func TestChatRequestShape(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"answer":"hi there"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "api-key", BaseURL: srv.URL})
	require.NoError(t, err)

	answer, err := c.Chat(context.Background(), "hello", "user-42")
	require.NoError(t, err)
	assert.Equal(t, "hi there", answer)

	assert.Equal(t, "Bearer api-key", gotAuth)
	assert.Equal(t, "hello", gotBody["query"])
	assert.Equal(t, "blocking", gotBody["response_mode"])
	assert.Equal(t, "user-42", gotBody["user"])
	assert.Equal(t, map[string]interface{}{}, gotBody["inputs"])
}

func TestChatAnswerExtraction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
		wantErr  bool
	}{
		{"top-level answer", `{"answer":"plain"}`, "plain", false},
		{"nested data answer", `{"data":{"answer":"hello"}}`, "hello", false},
		{"workflow outputs answer", `{"data":{"outputs":{"answer":"deep"}}}`, "deep", false},
		{"top-level wins over nested", `{"answer":"top","data":{"answer":"nested"}}`, "top", false},
		{"no recognized field", `{"result":"nope"}`, "", true},
		{"empty answer treated as missing", `{"answer":""}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
			require.NoError(t, err)

			answer, err := c.Chat(context.Background(), "q", "u")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoAnswer)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, answer)
			}
		})
	}
}

func TestChatFailures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"quota exceeded"}`))
		}))
		defer srv.Close()

		c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = c.Chat(context.Background(), "q", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("malformed response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = c.Chat(context.Background(), "q", "u")
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"answer":"too late"}`))
		}))
		defer srv.Close()

		c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = c.Chat(context.Background(), "q", "u")
		assert.Error(t, err)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		c, err := NewClient(Config{APIKey: "key", BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		_, err = c.Chat(context.Background(), "q", "u")
		assert.Error(t, err)
	})
}

func TestExtractAnswerLocations(t *testing.T) {
	var resp chatResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"answer":"hello"}}`), &resp))

	answer, location, ok := extractAnswer(resp)
	assert.True(t, ok)
	assert.Equal(t, "hello", answer)
	assert.Equal(t, "data.answer", location)
}
