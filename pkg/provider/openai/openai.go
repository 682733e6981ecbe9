// Package openai adapts the gateway to the OpenAI Chat Completions API.
package openai

import (
	"time"

	"github.com/rhuss/relais/pkg/provider"
	"github.com/rhuss/relais/pkg/provider/openaicompat"
)

// DefaultEndpoint is the OpenAI chat-completions URL.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Adapter implements provider.Adapter for OpenAI.
type Adapter struct {
	openaicompat.Base
}

var _ provider.Adapter = (*Adapter)(nil)

// Config holds the OpenAI adapter settings.
type Config struct {
	APIKey    string
	Endpoint  string
	Deadline  time.Duration
	MaxTokens int
}

// New creates an OpenAI adapter. Zero-valued limits get the provider defaults:
// a 4096 token ceiling and a 120s call deadline.
func New(cfg Config) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = 120 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	return &Adapter{
		Base: openaicompat.NewBase(openaicompat.Config{
			Name:     "openai",
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
