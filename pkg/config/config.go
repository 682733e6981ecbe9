// Package config provides unified configuration for the relais gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (provider API keys, GATEWAY_PORT)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The loaded Config is read-only after start-up. A provider with no API key
// is a valid configuration; requests routed to it fail with ConfigMissing
// at request time, never at start-up.
package config

import "time"

// Config holds all configuration for the relais gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Retry         RetryConfig         `yaml:"retry"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// ProvidersConfig holds the per-provider settings, one block per upstream.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `yaml:"openai"`
	Groq       ProviderConfig `yaml:"groq"`
	Fireworks  ProviderConfig `yaml:"fireworks"`
	Perplexity ProviderConfig `yaml:"perplexity"`
}

// ProviderConfig describes one upstream provider. Zero values for Endpoint,
// Deadline, and MaxTokens mean the adapter's own defaults apply.
type ProviderConfig struct {
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Endpoint   string        `yaml:"endpoint"`
	Deadline   time.Duration `yaml:"deadline"`
	MaxTokens  int           `yaml:"max_tokens"`
}

// RetryConfig holds the outbound retry policy shared by all providers.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // default: 3
	BackoffStep time.Duration `yaml:"backoff_step"` // default: 3s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffStep: 3 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
