// Package tools serves the static tool catalog. The catalog is a fixed list
// of tool descriptors compiled into the binary; it never depends on the
// request or on provider state.
package tools

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/relais/pkg/api"
)

// Catalog is the fixed set of tools advertised to clients. Clients pick
// from it when building the tools field of a chat request; the gateway
// itself never executes a tool.
type Catalog struct {
	Tools []api.ToolSpec `json:"tools"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Tools: builtins}
}

// Handler serves the catalog as JSON.
func (c *Catalog) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	})
}

var builtins = []api.ToolSpec{
	{
		Type: "function",
		Function: api.ToolFunction{
			Name:        "web_search",
			Description: "Search the web and return relevant results with sources",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"}
				},
				"required": ["query"]
			}`),
		},
	},
	{
		Type: "function",
		Function: api.ToolFunction{
			Name:        "return_citations",
			Description: "Return structured source citations for a grounded answer",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Title of the cited source"},
					"url": {"type": "string", "description": "URL of the cited source"},
					"snippet": {"type": "string", "description": "Relevant excerpt from the source"}
				},
				"required": ["title", "url"]
			}`),
		},
	},
	{
		Type: "function",
		Function: api.ToolFunction{
			Name:        "get_current_weather",
			Description: "Get the current weather for a location",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"location": {"type": "string", "description": "City and country, e.g. Munich, Germany"},
					"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]}
				},
				"required": ["location"]
			}`),
		},
	},
}
