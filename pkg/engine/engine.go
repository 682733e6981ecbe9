// Package engine orchestrates a chat call end to end: normalize the inbound
// request, encode it for the target provider, execute it under the
// provider's deadline, and translate the outcome into the success envelope
// for the call mode. The engine holds no per-request state; everything it
// needs is on the stack of the call.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/executor"
	"github.com/rhuss/relais/pkg/observability"
	"github.com/rhuss/relais/pkg/provider"
	"github.com/rhuss/relais/pkg/relay"
)

// defaultReasoningMethod is reported in the performance block when no
// override is configured.
const defaultReasoningMethod = "standard"

// Engine routes chat requests to registered provider adapters.
type Engine struct {
	adapters        map[string]provider.Adapter
	exec            *executor.Executor
	logger          *slog.Logger
	reasoningMethod string
}

// Option configures an Engine.
type Option func(*Engine)

// WithReasoningMethod overrides the reasoning method reported in the
// general-chat performance block.
func WithReasoningMethod(method string) Option {
	return func(e *Engine) {
		e.reasoningMethod = method
	}
}

// New creates an Engine. Adapters are registered afterwards; registration is
// a start-up concern and the adapter set is read-only once requests flow.
func New(exec *executor.Executor, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		adapters:        make(map[string]provider.Adapter),
		exec:            exec,
		logger:          logger,
		reasoningMethod: defaultReasoningMethod,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds an adapter under its own name.
func (e *Engine) Register(a provider.Adapter) {
	e.adapters[a.Name()] = a
}

// Providers returns the names of all registered adapters.
func (e *Engine) Providers() []string {
	names := make([]string, 0, len(e.adapters))
	for name := range e.adapters {
		names = append(names, name)
	}
	return names
}

func (e *Engine) adapter(name string) (provider.Adapter, error) {
	a, ok := e.adapters[name]
	if !ok {
		return nil, api.NewBadRequest(fmt.Sprintf("unknown provider %q", name))
	}
	return a, nil
}

// Chat performs one buffered call and returns the encoded success envelope.
// Search-augmented providers yield {answer, sources}; every other provider
// yields its own response body with a performance block added.
func (e *Engine) Chat(ctx context.Context, req *api.ChatRequest) (json.RawMessage, error) {
	a, err := e.adapter(req.Provider)
	if err != nil {
		return nil, err
	}
	caps := a.Capabilities()

	if err := Normalize(req, caps); err != nil {
		return nil, err
	}

	payload, err := a.Encode(req, false)
	if err != nil {
		return nil, err
	}

	res, err := e.exec.Do(ctx, payload, caps.Deadline)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		return nil, a.DecodeError(res.StatusCode, res.Body, req.Model)
	}

	result, err := a.Decode(res.Body, res.Latency)
	if err != nil {
		return nil, err
	}
	e.record(a.Name(), req.Model, result)

	if caps.SearchAugmented {
		out, merr := json.Marshal(translateSearch(result))
		if merr != nil {
			return nil, api.NewInternal(fmt.Sprintf("encoding response envelope: %s", merr.Error()))
		}
		return out, nil
	}
	return translateChat(result, e.reasoningMethod)
}

// ChatStream performs one streaming call, relaying upstream chunks into sink
// until upstream completes or the client goes away. The sink always receives
// exactly one Done event unless the client disconnected first.
func (e *Engine) ChatStream(ctx context.Context, req *api.ChatRequest, sink relay.Sink) error {
	a, err := e.adapter(req.Provider)
	if err != nil {
		return err
	}
	caps := a.Capabilities()
	if !caps.Streaming {
		return api.NewBadRequest(fmt.Sprintf("provider %q does not support streaming", req.Provider))
	}

	if err := Normalize(req, caps); err != nil {
		return err
	}

	payload, err := a.Encode(req, true)
	if err != nil {
		return err
	}

	handle, err := e.exec.Stream(ctx, payload, caps.Deadline, func(status int, body []byte) error {
		return a.DecodeError(status, body, req.Model)
	})
	if err != nil {
		return err
	}
	observability.ProviderLatency.WithLabelValues(a.Name(), req.Model).Observe(handle.Latency.Seconds())

	return relay.New(e.logger).Run(ctx, handle, sink)
}

// record captures latency and token metrics for a decoded buffered result.
func (e *Engine) record(providerName, model string, result *api.ChatResult) {
	observability.ProviderLatency.WithLabelValues(providerName, model).
		Observe(float64(result.LatencyMS) / 1000)
	if result.Usage != nil {
		observability.ProviderTokensTotal.WithLabelValues(providerName, "input").
			Add(float64(result.Usage.PromptTokens))
		observability.ProviderTokensTotal.WithLabelValues(providerName, "output").
			Add(float64(result.Usage.CompletionTokens))
	}
}
