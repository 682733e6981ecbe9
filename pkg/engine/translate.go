package engine

import (
	"encoding/json"
	"fmt"

	"github.com/rhuss/relais/pkg/api"
)

// Performance is appended to the general-chat success envelope.
type Performance struct {
	ResponseTimeMS  int64  `json:"response_time_ms"`
	ReasoningMethod string `json:"reasoning_method"`
}

// SearchEnvelope is the success shape of the search-augmented path: the
// answer text plus the structured sources it was grounded on.
type SearchEnvelope struct {
	Answer  string         `json:"answer"`
	Sources []api.Citation `json:"sources"`
}

// translateSearch builds the {answer, sources} envelope. Sources is always
// present, an answer without citations carries an empty array rather than
// null.
func translateSearch(result *api.ChatResult) *SearchEnvelope {
	sources := result.Citations
	if sources == nil {
		sources = []api.Citation{}
	}
	return &SearchEnvelope{
		Answer:  result.Text,
		Sources: sources,
	}
}

// translateChat builds the general-chat envelope: the provider's own
// response fields passed through untouched, with a performance block added
// alongside them.
func translateChat(result *api.ChatResult, reasoningMethod string) (json.RawMessage, error) {
	var envelope map[string]any
	if err := json.Unmarshal(result.Raw, &envelope); err != nil {
		return nil, api.NewInternal(fmt.Sprintf("re-encoding provider response: %s", err.Error()))
	}

	envelope["performance"] = Performance{
		ResponseTimeMS:  result.LatencyMS,
		ReasoningMethod: reasoningMethod,
	}

	out, err := json.Marshal(envelope)
	if err != nil {
		return nil, api.NewInternal(fmt.Sprintf("encoding response envelope: %s", err.Error()))
	}
	return out, nil
}
