package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		c, err := NewClient(Config{ChannelToken: "token"})
		require.NoError(t, err)
		assert.Equal(t, defaultReplyEndpoint, c.endpoint)
		assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	})
}

func TestReply(t *testing.T) {
	t.Run("sends expected payload", func(t *testing.T) {
		var gotAuth, gotContentType string
		var gotBody map[string]interface{}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c, err := NewClient(Config{ChannelToken: "secret-token", ReplyEndpoint: srv.URL})
		require.NoError(t, err)

		require.NoError(t, c.Reply(context.Background(), "reply-token-123", "hello there"))

		assert.Equal(t, "Bearer secret-token", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "reply-token-123", gotBody["replyToken"])

		messages, ok := gotBody["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "text", msg["type"])
		assert.Equal(t, "hello there", msg["text"])
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid reply token"}`))
		}))
		defer srv.Close()

		c, err := NewClient(Config{ChannelToken: "token", ReplyEndpoint: srv.URL})
		require.NoError(t, err)

		err = c.Reply(context.Background(), "expired-token", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "Invalid reply token")
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		c, err := NewClient(Config{ChannelToken: "token", ReplyEndpoint: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assert.Error(t, c.Reply(context.Background(), "token", "hello"))
	})
}

func TestIsTextMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected bool
	}{
		{"text message", Event{Type: "message", Message: Message{Type: "text", Text: "hi"}}, true},
		{"sticker message", Event{Type: "message", Message: Message{Type: "sticker"}}, false},
		{"follow event", Event{Type: "follow"}, false},
		{"empty event", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.IsTextMessage())
		})
	}
}

func TestWebhookRequestDecoding(t *testing.T) {
	raw := `{
		"destination": "U0000",
		"events": [
			{
				"type": "message",
				"replyToken": "rt-1",
				"timestamp": 1700000000000,
				"source": {"type": "user", "userId": "U1234"},
				"message": {"id": "m-1", "type": "text", "text": "hello bot"}
			},
			{"type": "follow", "source": {"type": "user", "userId": "U5678"}}
		]
	}`

	var req WebhookRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	require.Len(t, req.Events, 2)
	assert.True(t, req.Events[0].IsTextMessage())
	assert.Equal(t, "rt-1", req.Events[0].ReplyToken)
	assert.Equal(t, "U1234", req.Events[0].Source.UserID)
	assert.Equal(t, "hello bot", req.Events[0].Message.Text)
	assert.False(t, req.Events[1].IsTextMessage())
}
