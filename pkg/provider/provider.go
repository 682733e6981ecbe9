package provider

import (
	"net/http"
	"time"

	"github.com/rhuss/relais/pkg/api"
)

// Adapter translates between the gateway's canonical shapes and one
// provider's wire format. Adapters are stateless and safe for concurrent
// use; configuration (API key, base URL, limits) is injected once at
// construction and read-only afterwards.
type Adapter interface {
	// Name returns the provider identifier (e.g., "groq", "perplexity").
	Name() string

	// Capabilities returns the closed set of features and limits for this
	// provider: what it supports, its token ceiling, and its call deadline.
	Capabilities() Capabilities

	// Encode builds the provider's outbound payload. The stream argument is
	// decided by which endpoint was invoked and overrides the client's own
	// stream flag inside the payload.
	Encode(req *api.ChatRequest, stream bool) (*Payload, error)

	// Decode extracts a ChatResult from a successful response body.
	Decode(body []byte, latency time.Duration) (*api.ChatResult, error)

	// DecodeError maps a non-2xx status and raw error body into a
	// GatewayError. The requested model is interpolated into "not found"
	// messages, which is why Encode must run before errors can be decoded.
	DecodeError(status int, body []byte, model string) error
}

// Capabilities declares what a provider supports. The set is enumerated and
// closed; request validation dispatches on it rather than probing payloads.
type Capabilities struct {
	// Streaming indicates SSE streaming support.
	Streaming bool

	// ToolCalling indicates function/tool call support.
	ToolCalling bool

	// SearchAugmented marks providers whose responses carry citation
	// tool-calls and whose success envelope is {answer, sources}.
	SearchAugmented bool

	// MaxTokens is the ceiling max_tokens is clamped to before dispatch.
	MaxTokens int

	// Deadline bounds a single outbound call until headers are received.
	Deadline time.Duration
}

// Payload is a fully encoded outbound request, ready for the executor.
type Payload struct {
	Provider string
	URL      string
	Header   http.Header
	Body     []byte
}
