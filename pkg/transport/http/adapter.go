// Package http serves the relais gateway API over HTTP. It routes inbound
// requests, deserializes them into the canonical types in pkg/api,
// dispatches to the engine, and serializes the result as either a buffered
// JSON envelope or an SSE stream.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/engine"
	"github.com/rhuss/relais/pkg/tools"
	"github.com/rhuss/relais/pkg/transport"
)

// Adapter routes the gateway's HTTP surface.
type Adapter struct {
	engine *engine.Engine
	mux    *http.ServeMux
	config Config
	logger *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter dispatching to the given engine.
func NewAdapter(eng *engine.Engine, catalog *tools.Catalog, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = tools.Default()
	}
	a := &Adapter{
		engine: eng,
		mux:    http.NewServeMux(),
		config: cfg,
		logger: logger,
	}

	// Content routes dispatch on the method themselves so that OPTIONS
	// preflights and the 405 contract share one code path.
	a.mux.HandleFunc("/v1/chat/{provider}", a.content(a.handleChat))
	a.mux.HandleFunc("/v1/chat/{provider}/stream", a.content(a.handleChatStream))

	a.mux.Handle("GET /v1/tools", catalog.Handler())
	a.mux.HandleFunc("GET /healthz", handleHealth)

	return a
}

// Handle mounts an additional route on the adapter's mux. Used by the
// server bootstrap for /metrics.
func (a *Adapter) Handle(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// Handler returns the http.Handler for this adapter. Middleware is applied
// by the surrounding Server; the bare handler is what tests exercise.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// content wraps a POST handler with the shared method contract of the
// content routes: OPTIONS answers the CORS preflight, anything else but
// POST is rejected with an Allow header.
func (a *Adapter) content(post http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodOptions:
			writeCORSHeaders(w)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			post(w, r)
		default:
			w.Header().Set("Allow", http.MethodPost)
			writeTransportError(w, http.StatusMethodNotAllowed,
				"Method not allowed", fmt.Sprintf("method %s is not supported on this route", r.Method))
		}
	}
}

func writeCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
}

// writeTransportError writes an error envelope for failures that happen
// before a GatewayError exists (method, body size, JSON syntax).
func writeTransportError(w http.ResponseWriter, status int, errStr, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(transport.ErrorEnvelope{Error: errStr, Message: message})
}

// decodeRequest reads and validates the request body into a ChatRequest,
// stamping the provider from the route. A nil return means the error
// response has already been written.
func (a *Adapter) decodeRequest(w http.ResponseWriter, r *http.Request) *api.ChatRequest {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeTransportError(w, http.StatusRequestEntityTooLarge,
				"Request body too large", fmt.Sprintf("request body exceeds %d bytes", a.config.MaxBodySize))
			return nil
		}
		writeTransportError(w, http.StatusBadRequest,
			"Invalid JSON in request body", err.Error())
		return nil
	}

	req.Provider = r.PathValue("provider")
	return &req
}

// handleChat handles POST /v1/chat/{provider}.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	req := a.decodeRequest(w, r)
	if req == nil {
		return
	}

	envelope, err := a.engine.Chat(r.Context(), req)
	if err != nil {
		transport.WriteGatewayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(envelope)
}

// handleChatStream handles POST /v1/chat/{provider}/stream.
func (a *Adapter) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req := a.decodeRequest(w, r)
	if req == nil {
		return
	}

	sink := newStreamWriter(w)
	if err := a.engine.ChatStream(r.Context(), req, sink); err != nil {
		// Once the stream has started, the relay has already terminated
		// it with the Error and Done events; there is nothing left to
		// send on this connection.
		if !sink.started() {
			transport.WriteGatewayError(w, err)
			return
		}
		a.logger.Warn("stream ended with error",
			"provider", req.Provider,
			"request_id", transport.RequestIDFromContext(r.Context()),
			"error", err.Error(),
		)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
