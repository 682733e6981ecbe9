package engine

import (
	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/provider"
)

// Sampling defaults applied when the client omits a field. Pointer fields on
// ChatRequest distinguish "absent" from an explicit zero, so a temperature of
// 0 sent by the client is never overwritten here.
const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
	defaultTopP        = 0.9
)

// Normalize validates a request and canonicalizes it against the target
// provider's capabilities. It mutates req in place: after a successful
// return every sampling field is set and max_tokens lies within
// [1, caps.MaxTokens].
//
// Validation failures are BadRequest; nothing is ever sent upstream for an
// invalid request.
func Normalize(req *api.ChatRequest, caps provider.Capabilities) error {
	if err := api.ValidateChatRequest(req); err != nil {
		return err
	}

	if req.Temperature == nil {
		t := defaultTemperature
		req.Temperature = &t
	}
	if req.TopP == nil {
		p := defaultTopP
		req.TopP = &p
	}

	tokens := defaultMaxTokens
	if req.MaxTokens != nil {
		tokens = *req.MaxTokens
	}
	if tokens < 1 {
		tokens = 1
	}
	if caps.MaxTokens > 0 && tokens > caps.MaxTokens {
		tokens = caps.MaxTokens
	}
	req.MaxTokens = &tokens

	// An empty tool list carries no information; drop it so adapters emit
	// no tools field at all, and never send tool_choice without tools.
	if len(req.Tools) == 0 {
		req.Tools = nil
		req.ToolChoice = nil
	}

	return nil
}
