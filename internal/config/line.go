package config

import "time"

// LineConfig holds the messaging platform credentials and reply-API settings.
// Both the channel secret (webhook signature key) and the channel access
// token (reply-API bearer credential) are required at startup.
type LineConfig struct {
	ChannelSecret string        `env:"LINE_CHANNEL_SECRET" yaml:"channel_secret" required:"true"`
	ChannelToken  string        `env:"LINE_CHANNEL_ACCESS_TOKEN" yaml:"channel_access_token" required:"true"`
	ReplyEndpoint string        `env:"LINE_REPLY_ENDPOINT" yaml:"reply_endpoint" default:"https://api.line.me/v2/bot/message/reply"`
	Timeout       time.Duration `env:"LINE_REPLY_TIMEOUT" yaml:"reply_timeout" default:"15s"`
}
