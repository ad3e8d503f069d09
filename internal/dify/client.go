// Package dify implements the AI backend client: a blocking chat query with
// bearer authentication and tolerant answer extraction.
package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lewisedginton/webhook_relay/pkg/logger"
)

const (
	defaultBaseURL = "https://api.dify.ai/v1"
	defaultTimeout = 30 * time.Second

	chatMessagesPath     = "/chat-messages"
	responseModeBlocking = "blocking"
)

// ErrNoAnswer indicates the backend responded successfully but none of the
// known answer field locations were present.
var ErrNoAnswer = errors.New("no answer field in backend response")

// Config holds configuration for the AI backend client.
type Config struct {
	APIKey  string
	BaseURL string        // Optional: defaults to the public cloud endpoint
	Timeout time.Duration // Optional: defaults to 30s
	Logger  logger.Logger
}

// Client queries the AI backend for chat replies.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates an AI backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: cfg.Logger,
	}, nil
}

// chatRequest is the blocking chat-messages request body.
type chatRequest struct {
	Inputs       map[string]any `json:"inputs"`
	Query        string         `json:"query"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

// chatResponse mirrors the answer field locations observed across backend
// versions. extractAnswer resolves which one is populated.
type chatResponse struct {
	Answer string `json:"answer"`
	Data   struct {
		Answer  string `json:"answer"`
		Outputs struct {
			Answer string `json:"answer"`
		} `json:"outputs"`
	} `json:"data"`
}

// extractAnswer returns the reply text from the first populated answer
// location, in order of preference, and the location it came from.
//
// The field has moved between backend versions (top-level for chat apps,
// under data/outputs for workflow apps), hence the ordered fallback chain.
// TODO: pin the exact response contract with the backend provider and
// collapse this to a single field.
func extractAnswer(resp chatResponse) (text, location string, ok bool) {
	switch {
	case resp.Answer != "":
		return resp.Answer, "answer", true
	case resp.Data.Answer != "":
		return resp.Data.Answer, "data.answer", true
	case resp.Data.Outputs.Answer != "":
		return resp.Data.Outputs.Answer, "data.outputs.answer", true
	default:
		return "", "", false
	}
}

// Chat sends a blocking chat query for the given user and returns the
// backend's reply text. Any transport failure, non-success status, or
// unrecognized response shape is returned as an error; the caller decides
// how to degrade.
func (c *Client) Chat(ctx context.Context, query, userID string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Inputs:       map[string]any{},
		Query:        query,
		ResponseMode: responseModeBlocking,
		User:         userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatMessagesPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	answer, location, ok := extractAnswer(parsed)
	if !ok {
		return "", ErrNoAnswer
	}

	if location != "answer" && c.log != nil {
		c.log.Warn("Answer found in non-primary response location",
			logger.StringField("location", location))
	}

	return answer, nil
}
