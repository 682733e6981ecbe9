// Package groq adapts the gateway to the Groq OpenAI-compatible API.
package groq

import (
	"time"

	"github.com/rhuss/relais/pkg/provider"
	"github.com/rhuss/relais/pkg/provider/openaicompat"
)

// DefaultEndpoint is the Groq chat-completions URL.
const DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// Adapter implements provider.Adapter for Groq.
type Adapter struct {
	openaicompat.Base
}

var _ provider.Adapter = (*Adapter)(nil)

// Config holds the Groq adapter settings.
type Config struct {
	APIKey    string
	Endpoint  string
	Deadline  time.Duration
	MaxTokens int
}

// New creates a Groq adapter. Zero-valued limits get the provider defaults:
// an 8192 token ceiling and a 28s call deadline (Groq answers fast; a long
// deadline only delays surfacing real outages).
func New(cfg Config) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = 28 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}

	return &Adapter{
		Base: openaicompat.NewBase(openaicompat.Config{
			Name:     "groq",
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
