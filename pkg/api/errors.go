package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies a gateway failure. The set is closed: every error
// surfaced to a client carries exactly one of these kinds, and the HTTP
// status code is derived from it.
type ErrorKind string

const (
	// KindConfigMissing means a required secret (API key) is absent.
	// Fatal to the request, never to the process.
	KindConfigMissing ErrorKind = "config_missing"

	// KindBadRequest means the inbound request is malformed or incomplete.
	KindBadRequest ErrorKind = "bad_request"

	// KindUpstreamStatus means the provider returned a definitive error status.
	KindUpstreamStatus ErrorKind = "upstream_status"

	// KindUpstreamTimeout means the call deadline elapsed, or the provider
	// answered with a gateway-timeout class status (502/504).
	KindUpstreamTimeout ErrorKind = "upstream_timeout"

	// KindUpstreamUnreachable means the provider could not be reached at the
	// transport level.
	KindUpstreamUnreachable ErrorKind = "upstream_unreachable"

	// KindInternal means the gateway itself failed unexpectedly.
	KindInternal ErrorKind = "internal"
)

// GatewayError is the uniform error shape produced by adapters, the executor,
// and the engine. Status is the upstream HTTP status and is only meaningful
// for KindUpstreamStatus.
type GatewayError struct {
	Kind    ErrorKind       `json:"kind"`
	Status  int             `json:"status,omitempty"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Kind == KindUpstreamStatus {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps the error kind to the status code returned to the client.
func (e *GatewayError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnreachable:
		return http.StatusBadGateway
	case KindUpstreamStatus:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		// KindConfigMissing, KindInternal, and anything unknown.
		return http.StatusInternalServerError
	}
}

// NewConfigMissing creates a GatewayError for an absent provider secret.
func NewConfigMissing(provider string) *GatewayError {
	return &GatewayError{
		Kind:    KindConfigMissing,
		Message: fmt.Sprintf("API key for provider %q is not configured", provider),
	}
}

// NewBadRequest creates a GatewayError for invalid inbound input.
func NewBadRequest(message string) *GatewayError {
	return &GatewayError{Kind: KindBadRequest, Message: message}
}

// NewUpstreamStatus creates a GatewayError carrying a definitive upstream
// status. The raw response body is preserved as details.
func NewUpstreamStatus(status int, message string, details []byte) *GatewayError {
	e := &GatewayError{Kind: KindUpstreamStatus, Status: status, Message: message}
	if json.Valid(details) {
		e.Details = json.RawMessage(details)
	}
	return e
}

// NewUpstreamTimeout creates a GatewayError for an elapsed call deadline.
func NewUpstreamTimeout(message string) *GatewayError {
	return &GatewayError{Kind: KindUpstreamTimeout, Message: message}
}

// NewUpstreamUnreachable creates a GatewayError for a transport-level failure.
func NewUpstreamUnreachable(message string) *GatewayError {
	return &GatewayError{Kind: KindUpstreamUnreachable, Message: message}
}

// NewInternal creates a GatewayError for an unexpected gateway failure.
func NewInternal(message string) *GatewayError {
	return &GatewayError{Kind: KindInternal, Message: message}
}
