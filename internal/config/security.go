package config

// SecurityConfig holds security-related configuration.
// Webhook bodies are small JSON batches; 1MB leaves generous headroom.
type SecurityConfig struct {
	MaxRequestSize int64 `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"1048576"`
}
