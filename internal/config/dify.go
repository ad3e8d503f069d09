package config

import "time"

// DifyConfig holds the AI backend credentials and endpoint settings.
// The API key is required at startup; the base URL defaults to the public
// cloud endpoint and can be overridden for self-hosted deployments.
type DifyConfig struct {
	APIKey     string        `env:"DIFY_API_KEY" yaml:"api_key" required:"true"`
	APIBaseURL string        `env:"DIFY_API_URL" yaml:"api_base_url" default:"https://api.dify.ai/v1"`
	Timeout    time.Duration `env:"DIFY_TIMEOUT" yaml:"timeout" default:"30s"`
}
