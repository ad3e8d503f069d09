// Package relay implements the webhook ingestion pipeline: signature
// verification, immediate acknowledgment, and asynchronous per-event
// dispatch to the AI backend and back to the messaging platform.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/lewisedginton/webhook_relay/internal/line"
	"github.com/lewisedginton/webhook_relay/pkg/logger"
	"github.com/lewisedginton/webhook_relay/pkg/metrics"
)

// FallbackText is sent to the user when the AI backend fails or returns no
// usable answer. The webhook has already been acknowledged at that point, so
// a degraded reply is the only remaining way to respond.
const FallbackText = "Sorry, I couldn't come up with a response. Please try again in a moment."

const defaultMaxBodySize = 1 << 20

// AIBackend produces a reply for a user's message.
type AIBackend interface {
	Chat(ctx context.Context, query, userID string) (string, error)
}

// Replier delivers reply text back to the messaging platform.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Verifier authenticates a webhook delivery against its signature header.
type Verifier interface {
	Verify(body []byte, signature string) bool
}

// Config holds the handler's collaborators.
type Config struct {
	Verifier    Verifier
	AIBackend   AIBackend
	Replier     Replier
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	MaxBodySize int64 // Optional: defaults to 1 MiB
}

// Handler receives webhook deliveries, acknowledges them immediately, and
// processes their events in detached goroutines so slow downstream calls
// never delay the acknowledgment.
type Handler struct {
	verifier    Verifier
	ai          AIBackend
	replier     Replier
	metrics     *metrics.Metrics
	log         logger.Logger
	maxBodySize int64

	wg sync.WaitGroup
}

// NewHandler creates a webhook handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if cfg.AIBackend == nil {
		return nil, fmt.Errorf("AI backend is required")
	}
	if cfg.Replier == nil {
		return nil, fmt.Errorf("replier is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	return &Handler{
		verifier:    cfg.Verifier,
		ai:          cfg.AIBackend,
		replier:     cfg.Replier,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		maxBodySize: maxBodySize,
	}, nil
}

// ServeHTTP authenticates the delivery, acknowledges it with 200, then
// dispatches each event to its own goroutine. Rejections before the
// signature check passes get 401; anything after a valid signature gets 200
// because the sender retries on non-2xx and a retry cannot fix a body we
// already failed to process.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromContext(r.Context(), h.log)
	h.count(func(m *metrics.Metrics) { m.WebhookRequestsCounter.Inc() })

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		log.Warn("Failed to read webhook body", logger.ErrorField(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if !h.verifier.Verify(body, r.Header.Get(line.SignatureHeader)) {
		log.Warn("Rejected webhook with invalid signature",
			logger.ClientIPField(r.RemoteAddr))
		h.count(func(m *metrics.Metrics) { m.SignatureRejectionsCounter.Inc() })
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var webhook line.WebhookRequest
	if err := json.Unmarshal(body, &webhook); err != nil {
		log.Warn("Discarding malformed webhook body from authenticated sender",
			logger.ErrorField(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	log.Debug("Accepted webhook delivery",
		logger.IntField("events", len(webhook.Events)))
	h.count(func(m *metrics.Metrics) {
		m.EventsReceivedCounter.Add(float64(len(webhook.Events)))
	})

	for _, event := range webhook.Events {
		h.wg.Add(1)
		go h.processEvent(log, event)
	}
}

// processEvent handles a single event end to end. Failures here are logged
// and dropped: the delivery is already acknowledged, and one event's failure
// must not affect its siblings.
func (h *Handler) processEvent(log logger.Logger, event line.Event) {
	defer h.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Recovered from panic while processing event",
				logger.Field("panic", rec),
				logger.StringField("stack", string(debug.Stack())))
		}
	}()

	if !event.IsTextMessage() {
		log.Debug("Skipping non-text event",
			logger.StringField("event_type", event.Type))
		h.count(func(m *metrics.Metrics) { m.EventsSkippedCounter.Inc() })
		return
	}

	// The inbound request is long gone; downstream timeouts are enforced
	// by the clients themselves.
	ctx := context.Background()

	replyText, err := h.ai.Chat(ctx, event.Message.Text, event.Source.UserID)
	if err != nil {
		log.Error("AI backend query failed, using fallback reply",
			logger.ErrorField(err),
			logger.StringField("user_id", event.Source.UserID))
		h.count(func(m *metrics.Metrics) { m.AIFallbacksCounter.Inc() })
		replyText = FallbackText
	}

	if err := h.replier.Reply(ctx, event.ReplyToken, replyText); err != nil {
		log.Error("Failed to deliver reply", logger.ErrorField(err))
		h.count(func(m *metrics.Metrics) { m.RepliesFailedCounter.Inc() })
		return
	}

	h.count(func(m *metrics.Metrics) { m.RepliesSentCounter.Inc() })
}

// Wait blocks until all in-flight event processing has finished. Used during
// graceful shutdown and by tests.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) count(fn func(*metrics.Metrics)) {
	if h.metrics != nil {
		fn(h.metrics)
	}
}
