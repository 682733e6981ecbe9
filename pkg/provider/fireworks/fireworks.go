// Package fireworks adapts the gateway to the Fireworks AI inference API.
package fireworks

import (
	"time"

	"github.com/rhuss/relais/pkg/provider"
	"github.com/rhuss/relais/pkg/provider/openaicompat"
)

// DefaultEndpoint is the Fireworks chat-completions URL.
const DefaultEndpoint = "https://api.fireworks.ai/inference/v1/chat/completions"

// Adapter implements provider.Adapter for Fireworks.
type Adapter struct {
	openaicompat.Base
}

var _ provider.Adapter = (*Adapter)(nil)

// Config holds the Fireworks adapter settings.
type Config struct {
	APIKey    string
	Endpoint  string
	Deadline  time.Duration
	MaxTokens int
}

// New creates a Fireworks adapter. Zero-valued limits get the provider
// defaults: a 32000 token ceiling and a 180s call deadline (large open
// models can be slow to first token).
func New(cfg Config) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = 180 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 32000
	}

	return &Adapter{
		Base: openaicompat.NewBase(openaicompat.Config{
			Name:     "fireworks",
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
			Capabilities: provider.Capabilities{
				Streaming:   true,
				ToolCalling: true,
				MaxTokens:   cfg.MaxTokens,
				Deadline:    cfg.Deadline,
			},
		}),
	}
}
