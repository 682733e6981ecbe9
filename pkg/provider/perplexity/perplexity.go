// Package perplexity adapts the gateway to the Perplexity search-augmented
// chat API. On top of the shared Chat Completions handling it extracts
// citation tool-calls into structured sources.
package perplexity

import (
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/provider"
	"github.com/rhuss/relais/pkg/provider/openaicompat"
)

// DefaultEndpoint is the Perplexity chat-completions URL.
const DefaultEndpoint = "https://api.perplexity.ai/chat/completions"

// Adapter implements provider.Adapter for Perplexity.
type Adapter struct {
	openaicompat.Base
}

var _ provider.Adapter = (*Adapter)(nil)

// Config holds the Perplexity adapter settings.
type Config struct {
	APIKey    string
	Endpoint  string
	Deadline  time.Duration
	MaxTokens int
}

// New creates a Perplexity adapter. Zero-valued limits get the provider
// defaults: an 8192 token ceiling and a 25s call deadline (search-augmented
// answers either arrive quickly or not at all).
func New(cfg Config) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = 25 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}

	return &Adapter{
		Base: openaicompat.NewBase(openaicompat.Config{
			Name:     "perplexity",
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
			Capabilities: provider.Capabilities{
				Streaming:       true,
				ToolCalling:     true,
				SearchAugmented: true,
				MaxTokens:       cfg.MaxTokens,
				Deadline:        cfg.Deadline,
			},
		}),
	}
}

// Decode extracts the answer text and any citation tool-calls from a
// successful response body.
func (a *Adapter) Decode(body []byte, latency time.Duration) (*api.ChatResult, error) {
	result, err := a.Base.Decode(body, latency)
	if err != nil {
		return nil, err
	}

	var resp openaicompat.ChatCompletionResponse
	if jerr := unmarshalResponse(body, &resp); jerr != nil {
		// Base.Decode already parsed it; this cannot happen in practice.
		return result, nil
	}
	result.Citations = extractCitations(resp.Choices[0].Message.ToolCalls)
	return result, nil
}
