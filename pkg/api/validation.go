package api

import "fmt"

// ValidateChatRequest checks the structural invariants of an inbound request
// before any normalization or outbound call happens. A request with no
// messages is rejected here; no provider call is ever made for it.
func ValidateChatRequest(req *ChatRequest) *GatewayError {
	if req == nil {
		return NewBadRequest("request body is required")
	}
	if len(req.Messages) == 0 {
		return NewBadRequest("messages must not be empty")
	}
	for i, m := range req.Messages {
		if m.Role == "" {
			return NewBadRequest(fmt.Sprintf("messages[%d]: role is required", i))
		}
	}
	for i, t := range req.Tools {
		if t.Function.Name == "" {
			return NewBadRequest(fmt.Sprintf("tools[%d]: function name is required", i))
		}
	}
	return nil
}
