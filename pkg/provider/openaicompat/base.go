package openaicompat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/provider"
)

// Config holds the per-provider settings for a Base adapter. All fields are
// read-only after construction; tests inject fabricated keys and limits here
// instead of reading process environment at call time.
type Config struct {
	// Name is the provider identifier.
	Name string

	// APIKey is the bearer token. An empty key is not a construction error:
	// it surfaces as a ConfigMissing error on the first Encode.
	APIKey string

	// Endpoint is the full chat-completions URL.
	Endpoint string

	// AuthHeader is the header carrying the bearer token.
	// Defaults to "Authorization".
	AuthHeader string

	// Capabilities declares limits and features for this provider.
	Capabilities provider.Capabilities
}

// Base implements the shared Chat Completions encode/decode logic.
// Provider adapters embed it and override what differs.
type Base struct {
	cfg Config
}

// NewBase creates a Base for an OpenAI-compatible provider.
func NewBase(cfg Config) Base {
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "Authorization"
	}
	return Base{cfg: cfg}
}

// Name returns the provider identifier.
func (b *Base) Name() string {
	return b.cfg.Name
}

// Capabilities returns the provider's feature set and limits.
func (b *Base) Capabilities() provider.Capabilities {
	return b.cfg.Capabilities
}

// Encode builds the outbound Chat Completions payload. The stream flag in
// the payload always matches the call mode of the invoked endpoint,
// regardless of what the client put in its own body.
func (b *Base) Encode(req *api.ChatRequest, stream bool) (*provider.Payload, error) {
	if b.cfg.APIKey == "" {
		return nil, api.NewConfigMissing(b.cfg.Name)
	}

	cr := ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}

	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, ChatMessage{Role: m.Role, Content: m.Content})
	}

	// Tools and tool_choice pass through only when present and non-empty.
	for _, t := range req.Tools {
		typ := t.Type
		if typ == "" {
			typ = "function"
		}
		cr.Tools = append(cr.Tools, ChatTool{
			Type: typ,
			Function: ChatFunctionDef{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	if len(cr.Tools) > 0 && req.ToolChoice != nil {
		cr.ToolChoice = req.ToolChoice
	}

	body, err := json.Marshal(cr)
	if err != nil {
		return nil, api.NewInternal(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(b.cfg.AuthHeader, "Bearer "+b.cfg.APIKey)
	if stream {
		header.Set("Accept", "text/event-stream")
	}

	return &provider.Payload{
		Provider: b.cfg.Name,
		URL:      b.cfg.Endpoint,
		Header:   header,
		Body:     body,
	}, nil
}

// Decode extracts choices[0] from a successful response body.
func (b *Base) Decode(body []byte, latency time.Duration) (*api.ChatResult, error) {
	resp, choice, err := b.parse(body)
	if err != nil {
		return nil, err
	}

	result := &api.ChatResult{
		LatencyMS: latency.Milliseconds(),
		Raw:       json.RawMessage(body),
	}
	if choice.Message.Content != nil {
		result.Text = *choice.Message.Content
	}
	if resp.Usage != nil {
		result.Usage = &api.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}

// parse unmarshals a success body and returns the first choice.
func (b *Base) parse(body []byte) (*ChatCompletionResponse, *ChatChoice, error) {
	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, api.NewInternal(fmt.Sprintf("failed to parse %s response: %s", b.cfg.Name, err.Error()))
	}
	if len(resp.Choices) == 0 {
		return nil, nil, api.NewInternal(fmt.Sprintf("%s response contained no choices", b.cfg.Name))
	}
	return &resp, &resp.Choices[0], nil
}

// DecodeError maps an upstream error status and body into a GatewayError.
func (b *Base) DecodeError(status int, body []byte, model string) error {
	message := extractErrorMessage(body)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = fmt.Sprintf("authentication with %s failed: invalid or missing API key", b.cfg.Name)
		}
		return api.NewUpstreamStatus(status, message, body)

	case http.StatusNotFound:
		return api.NewUpstreamStatus(status, fmt.Sprintf("model %q not found on %s", model, b.cfg.Name), body)

	case http.StatusTooManyRequests:
		if message == "" {
			message = fmt.Sprintf("%s rate limit exceeded", b.cfg.Name)
		}
		return api.NewUpstreamStatus(status, message, body)

	case http.StatusBadGateway, http.StatusGatewayTimeout:
		if message == "" {
			message = fmt.Sprintf("%s gateway timeout (HTTP %d)", b.cfg.Name, status)
		}
		return api.NewUpstreamTimeout(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected %s error (HTTP %d)", b.cfg.Name, status)
		}
		return api.NewUpstreamStatus(status, message, body)
	}
}

// extractErrorMessage tries to parse the body as a ChatErrorResponse and
// returns the provider-supplied message if found.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var errResp ChatErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return ""
}
