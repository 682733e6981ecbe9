package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/relais/pkg/api"
)

func TestWriteGatewayErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"config missing", api.NewConfigMissing("groq"), http.StatusInternalServerError, "Provider not configured"},
		{"bad request", api.NewBadRequest("messages must not be empty"), http.StatusBadRequest, "Invalid request"},
		{"upstream timeout", api.NewUpstreamTimeout("no headers"), http.StatusGatewayTimeout, "Provider timeout"},
		{"upstream unreachable", api.NewUpstreamUnreachable("dial refused"), http.StatusBadGateway, "Provider unreachable"},
		{"upstream status", api.NewUpstreamStatus(429, "rate limited", nil), http.StatusTooManyRequests, "Provider error"},
		{"internal", api.NewInternal("boom"), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteGatewayError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("body not valid JSON: %v", err)
			}
			if env.Error != tt.wantError {
				t.Errorf("error = %q, want %q", env.Error, tt.wantError)
			}
			if env.Message == "" {
				t.Error("message must not be empty")
			}
		})
	}
}

func TestWriteGatewayErrorPreservesDetails(t *testing.T) {
	details := []byte(`{"error":{"code":"model_overloaded"}}`)
	rec := httptest.NewRecorder()

	WriteGatewayError(rec, api.NewUpstreamStatus(503, "overloaded", details))

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body: %v", err)
	}
	if string(env.Details) != string(details) {
		t.Errorf("details = %s, want %s", env.Details, details)
	}
}
