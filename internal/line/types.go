// Package line implements the messaging platform integration: the inbound
// webhook payload types and the outbound reply-API client.
package line

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "X-Line-Signature"

// Event and message type discriminators used by the webhook payload.
const (
	EventTypeMessage = "message"
	MessageTypeText  = "text"
)

// WebhookRequest is the body of a webhook delivery: a batch of events
// addressed to one bot destination.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single platform event. Only text message events carry a
// processable payload; everything else (follows, joins, stickers, ...)
// is skipped by the relay.
type Event struct {
	Type       string  `json:"type"`
	ReplyToken string  `json:"replyToken"`
	Timestamp  int64   `json:"timestamp"`
	Source     Source  `json:"source"`
	Message    Message `json:"message"`
}

// Source identifies where an event originated.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
}

// Message is the message payload of a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// IsTextMessage reports whether the event is a text message the relay
// should answer.
func (e Event) IsTextMessage() bool {
	return e.Type == EventTypeMessage && e.Message.Type == MessageTypeText
}

// TextMessage is an outbound text message in the reply-API payload.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextMessage builds an outbound text message.
func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: MessageTypeText, Text: text}
}

// replyRequest is the reply-API request body. The reply token correlates
// the outbound message with the inbound event it answers.
type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}
