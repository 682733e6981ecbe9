package perplexity

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/provider/openaicompat"
)

// citationArgs is the argument shape of a citation/web-search tool call.
type citationArgs struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// extractCitations converts citation-tagged tool calls into structured
// sources. A malformed entry degrades to a placeholder; it never fails the
// response, and sibling entries decode normally.
func extractCitations(calls []openaicompat.ChatToolCall) []api.Citation {
	var citations []api.Citation
	for _, tc := range calls {
		if !isCitationCall(tc.Function.Name) {
			continue
		}
		citations = append(citations, decodeCitation(tc.Function.Arguments))
	}
	return citations
}

// isCitationCall reports whether a tool call carries a source reference.
func isCitationCall(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "citation") || strings.Contains(name, "web_search") || strings.Contains(name, "search_result")
}

// decodeCitation parses a single JSON-encoded arguments string. Providers
// occasionally truncate or mangle these, so a failed parse is retried through
// jsonrepair before falling back to the placeholder entry.
func decodeCitation(arguments string) api.Citation {
	var args citationArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(arguments)
		if rerr != nil || json.Unmarshal([]byte(repaired), &args) != nil {
			slog.Warn("dropping malformed citation arguments",
				"arguments", truncate(arguments, 200),
			)
			return api.Citation{Title: "Citation", URL: "#"}
		}
	}

	c := api.Citation{Title: args.Title, URL: args.URL, Snippet: args.Snippet}
	if c.Title == "" {
		c.Title = "Source"
	}
	return c
}

// unmarshalResponse is a thin wrapper so the adapter can reparse the body it
// already validated.
func unmarshalResponse(body []byte, resp *openaicompat.ChatCompletionResponse) error {
	return json.Unmarshal(body, resp)
}

// truncate limits a string for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
