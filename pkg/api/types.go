package api

import "encoding/json"

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSpec describes a callable capability offered to the model. The
// parameters schema is carried opaquely and passed through to the provider
// unmodified.
type ToolSpec struct {
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction holds the name, description, and JSON-schema parameters of a tool.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ChatRequest is the provider-agnostic inbound request. Optional sampling
// fields are pointers so that an explicit zero survives normalization and an
// absent field can be given a default.
//
// Provider is derived from the route, never from the body. The Stream flag
// inside the payload is likewise forced by the endpoint that was invoked;
// the client's own value is not trusted for routing.
type ChatRequest struct {
	Provider    string     `json:"-"`
	Model       string     `json:"model"`
	Messages    []Message  `json:"messages"`
	Temperature *float64   `json:"temperature,omitempty"`
	TopP        *float64   `json:"top_p,omitempty"`
	MaxTokens   *int       `json:"max_tokens,omitempty"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	ToolChoice  any        `json:"tool_choice,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
}

// Citation is a structured source reference extracted from a provider's
// tool-call output.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Usage holds token accounting as reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the decoded outcome of one buffered provider call.
// It is created once per call and owned solely by the request that
// produced it.
type ChatResult struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
	Usage     *Usage     `json:"usage,omitempty"`
	LatencyMS int64      `json:"latency_ms"`

	// Raw is the untranslated provider response body, kept for the
	// passthrough success envelope on the general-chat path.
	Raw json.RawMessage `json:"-"`
}
