package api

import "encoding/json"

// StreamEventType classifies an outbound streaming event.
type StreamEventType string

const (
	// EventDelta carries a verbatim chunk of upstream stream data.
	EventDelta StreamEventType = "delta"

	// EventToolCallDelta carries an incremental tool-call fragment.
	EventToolCallDelta StreamEventType = "tool_call_delta"

	// EventDone terminates the stream. Every stream ends with exactly one
	// Done, whether it completed or failed.
	EventDone StreamEventType = "done"

	// EventError reports an upstream failure. It is always followed by Done.
	EventError StreamEventType = "error"
)

// StreamEvent is a single tagged event on the gateway's outbound stream.
// Delta and ToolCall payloads are forwarded as-is; re-chunking upstream data
// is permitted, reordering is not.
type StreamEvent struct {
	Type     StreamEventType
	Delta    string
	ToolCall json.RawMessage
	Err      string
}
