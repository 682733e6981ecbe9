// Package executor issues outbound provider calls under a deadline and a
// shared, parameterized retry policy. It is protocol-agnostic: adapters
// encode payloads, the executor moves bytes.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/debug"
	"github.com/rhuss/relais/pkg/observability"
	"github.com/rhuss/relais/pkg/provider"
)

// maxResponseBody caps how much of an upstream response is buffered.
const maxResponseBody = 10 << 20 // 10 MB

// Policy is the retry policy shared by all adapters. Providers differ only
// in their deadlines, never in retry behavior.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffStep scales the linear backoff: the delay before retry k is
	// k*BackoffStep, so waits grow with each retry.
	BackoffStep time.Duration

	// RetryableStatus reports whether an upstream status warrants a retry.
	// Nil means the default predicate (502 and 504 only).
	RetryableStatus func(status int) bool
}

// DefaultPolicy returns the production retry policy: three attempts,
// 3s backoff step, retries on 502/504.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BackoffStep: 3 * time.Second,
	}
}

func (p Policy) retryable(status int) bool {
	if p.RetryableStatus != nil {
		return p.RetryableStatus(status)
	}
	return status == http.StatusBadGateway || status == http.StatusGatewayTimeout
}

// Result is the raw outcome of a buffered call: any definitive upstream
// response, success or error, ends the retry loop and is returned for the
// adapter to decode.
type Result struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Executor performs outbound HTTP calls. It is stateless across requests
// and safe for concurrent use.
type Executor struct {
	client *http.Client
	policy Policy
	logger *slog.Logger
}

// New creates an Executor with the given retry policy. Deadlines are applied
// per call via context, not via a client-wide timeout, because each provider
// carries its own deadline.
func New(policy Policy, logger *slog.Logger) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client: &http.Client{},
		policy: policy,
		logger: logger,
	}
}

// Do performs a buffered call. The deadline bounds the whole exchange
// end-to-end: once it fires, the in-flight attempt is cancelled and no
// further retries happen even if retries remain.
//
// Retries happen only on transport failure or a retryable status. Any other
// response, success or error, is returned immediately for decoding.
func (e *Executor) Do(ctx context.Context, p *provider.Payload, deadline time.Duration) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var lastResult *Result
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.backoff(ctx, p.Provider, attempt-1); err != nil {
				return nil, err
			}
		}

		res, err := e.attempt(ctx, p)
		if err != nil {
			if ctxErr := contextError(ctx, p.Provider); ctxErr != nil {
				return nil, ctxErr
			}
			lastResult, lastErr = nil, err
			e.logger.Warn("provider call failed",
				"provider", p.Provider,
				"attempt", attempt,
				"error", err.Error(),
			)
			continue
		}

		observability.ProviderRequestsTotal.WithLabelValues(p.Provider, strconv.Itoa(res.StatusCode)).Inc()

		if e.policy.retryable(res.StatusCode) {
			lastResult, lastErr = res, nil
			e.logger.Warn("retryable provider status",
				"provider", p.Provider,
				"attempt", attempt,
				"status", res.StatusCode,
			)
			continue
		}

		return res, nil
	}

	// Retries exhausted: surface the last observed outcome.
	if lastResult != nil {
		return lastResult, nil
	}
	return nil, lastErr
}

// attempt performs one HTTP exchange and buffers the response body.
func (e *Executor) attempt(ctx context.Context, p *provider.Payload) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		return nil, api.NewInternal(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	req.Header = p.Header.Clone()

	debug.Log("executor", "outbound request", "provider", p.Provider, "url", p.URL, "bytes", len(p.Body))
	debug.Raw("executor", string(p.Body))

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, api.NewUpstreamUnreachable(fmt.Sprintf("%s unreachable: %s", p.Provider, err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, api.NewUpstreamUnreachable(fmt.Sprintf("reading %s response: %s", p.Provider, err.Error()))
	}

	debug.Log("executor", "upstream response", "provider", p.Provider, "status", resp.StatusCode, "bytes", len(body))
	debug.Raw("executor", string(body))

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       body,
		Latency:    time.Since(start),
	}, nil
}

// backoff waits before retry number retry (1-based). The wait is cooperative:
// it aborts as soon as the call deadline fires or the client goes away.
func (e *Executor) backoff(ctx context.Context, providerName string, retry int) error {
	delay := time.Duration(retry) * e.policy.BackoffStep
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return contextError(ctx, providerName)
	case <-timer.C:
	}

	observability.ProviderRetriesTotal.WithLabelValues(providerName).Inc()
	return nil
}

// contextError translates a finished context into the matching GatewayError,
// or returns nil if the context is still live.
func contextError(ctx context.Context, providerName string) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return api.NewUpstreamTimeout(fmt.Sprintf("%s did not respond within the call deadline", providerName))
	case context.Canceled:
		return api.NewInternal("request cancelled by client")
	default:
		return nil
	}
}
