package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/relais/pkg/api"
)

// ErrorEnvelope is the JSON shape of every failure the gateway returns:
// a stable summary string per error kind, the diagnostic message, and any
// provider-supplied detail preserved verbatim.
type ErrorEnvelope struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// summary maps an error kind to the stable envelope summary. Clients
// dispatch on these strings, so they never carry request-specific detail.
func summary(kind api.ErrorKind) string {
	switch kind {
	case api.KindConfigMissing:
		return "Provider not configured"
	case api.KindBadRequest:
		return "Invalid request"
	case api.KindUpstreamTimeout:
		return "Provider timeout"
	case api.KindUpstreamUnreachable:
		return "Provider unreachable"
	case api.KindUpstreamStatus:
		return "Provider error"
	default:
		return "Internal server error"
	}
}

// WriteGatewayError serializes err as the error envelope, deriving the HTTP
// status from the error kind. A non-GatewayError is treated as Internal.
func WriteGatewayError(w http.ResponseWriter, err error) {
	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) {
		gwErr = api.NewInternal(err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(gwErr.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorEnvelope{
		Error:   summary(gwErr.Kind),
		Message: gwErr.Message,
		Details: gwErr.Details,
	})
}
