package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

const (
	defaultReplyEndpoint = "https://api.line.me/v2/bot/message/reply"
	defaultTimeout       = 15 * time.Second
)

// Config holds configuration for the reply-API client.
type Config struct {
	ChannelToken  string
	ReplyEndpoint string        // Optional: defaults to the public platform endpoint
	Timeout       time.Duration // Optional: defaults to 15s
	Logger        logger.Logger
}

// Client sends replies through the messaging platform's reply API.
type Client struct {
	token      string
	endpoint   string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a reply-API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ChannelToken == "" {
		return nil, fmt.Errorf("channel access token is required")
	}

	endpoint := cfg.ReplyEndpoint
	if endpoint == "" {
		endpoint = defaultReplyEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		token:    cfg.ChannelToken,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: cfg.Logger,
	}, nil
}

// Reply sends a single text message answering the inbound event identified
// by replyToken. The token is single-use and short-lived; a failed call is
// not retried (the token would likely be expired or consumed by then).
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	payload, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []TextMessage{NewTextMessage(text)},
	})
	if err != nil {
		return fmt.Errorf("failed to encode reply payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("reply API returned status %d: %s", resp.StatusCode, body)
	}

	if c.log != nil {
		c.log.Debug("Reply delivered", logger.StringField("reply_token", replyToken))
	}
	return nil
}
