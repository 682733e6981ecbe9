package api

import (
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *GatewayError
		want int
	}{
		{"config missing", NewConfigMissing("openai"), http.StatusInternalServerError},
		{"bad request", NewBadRequest("empty messages"), http.StatusBadRequest},
		{"timeout", NewUpstreamTimeout("deadline elapsed"), http.StatusGatewayTimeout},
		{"unreachable", NewUpstreamUnreachable("connection refused"), http.StatusBadGateway},
		{"internal", NewInternal("boom"), http.StatusInternalServerError},
		{"upstream 429", NewUpstreamStatus(429, "rate limited", nil), http.StatusTooManyRequests},
		{"upstream 404", NewUpstreamStatus(404, "model not found", nil), http.StatusNotFound},
		{"upstream bogus status", NewUpstreamStatus(0, "weird", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUpstreamStatusDetails(t *testing.T) {
	body := []byte(`{"error":{"message":"over capacity"}}`)
	err := NewUpstreamStatus(503, "service unavailable", body)
	if string(err.Details) != string(body) {
		t.Errorf("Details = %s, want %s", err.Details, body)
	}

	// Non-JSON bodies are dropped rather than corrupting the envelope.
	err = NewUpstreamStatus(502, "bad gateway", []byte("<html>nope</html>"))
	if err.Details != nil {
		t.Errorf("Details = %s, want nil for non-JSON body", err.Details)
	}
}

func TestErrorString(t *testing.T) {
	e := NewUpstreamStatus(401, "invalid API key", nil)
	want := "upstream_status (HTTP 401): invalid API key"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	e2 := NewBadRequest("messages must not be empty")
	if e2.Error() != "bad_request: messages must not be empty" {
		t.Errorf("Error() = %q", e2.Error())
	}
}
