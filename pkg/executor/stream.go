package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/observability"
	"github.com/rhuss/relais/pkg/provider"
)

// StreamHandle is a live upstream byte stream. Closing it cancels the
// upstream request promptly, so a client disconnect never leaves an orphaned
// long-lived upstream read.
type StreamHandle struct {
	body   io.ReadCloser
	cancel context.CancelFunc

	// Latency is the time until response headers were received.
	Latency time.Duration
}

var _ io.ReadCloser = (*StreamHandle)(nil)

// Read reads raw bytes from the upstream response.
func (h *StreamHandle) Read(p []byte) (int, error) {
	return h.body.Read(p)
}

// Close cancels the upstream request and releases the connection.
func (h *StreamHandle) Close() error {
	h.cancel()
	return h.body.Close()
}

// Stream opens a streaming call. The deadline applies only until response
// headers arrive; after that the stream lives until upstream completes or
// the caller's context is cancelled. decodeErr maps a definitive upstream
// error status into the adapter's error shape.
func (e *Executor) Stream(ctx context.Context, p *provider.Payload, deadline time.Duration, decodeErr func(status int, body []byte) error) (*StreamHandle, error) {
	var lastStatus int
	var lastBody []byte
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.backoff(ctx, p.Provider, attempt-1); err != nil {
				return nil, err
			}
		}

		handle, status, body, err := e.streamAttempt(ctx, p, deadline)
		if err != nil {
			if ctxErr := contextError(ctx, p.Provider); ctxErr != nil {
				return nil, ctxErr
			}
			var gwErr *api.GatewayError
			if errors.As(err, &gwErr) && gwErr.Kind == api.KindUpstreamTimeout {
				// The header deadline fired; no further retries.
				return nil, err
			}
			lastErr = err
			lastStatus, lastBody = 0, nil
			e.logger.Warn("provider stream failed",
				"provider", p.Provider,
				"attempt", attempt,
				"error", err.Error(),
			)
			continue
		}

		if handle != nil {
			observability.ProviderRequestsTotal.WithLabelValues(p.Provider, strconv.Itoa(status)).Inc()
			return handle, nil
		}

		// Definitive upstream status before any stream bytes.
		observability.ProviderRequestsTotal.WithLabelValues(p.Provider, strconv.Itoa(status)).Inc()
		if e.policy.retryable(status) {
			lastStatus, lastBody, lastErr = status, body, nil
			continue
		}
		return nil, decodeErr(status, body)
	}

	if lastStatus != 0 {
		return nil, decodeErr(lastStatus, lastBody)
	}
	return nil, lastErr
}

// streamAttempt performs one streaming exchange. It returns either a live
// handle (2xx), or the status and buffered body of an upstream error, or a
// transport-level error.
func (e *Executor) streamAttempt(ctx context.Context, p *provider.Payload, deadline time.Duration) (*StreamHandle, int, []byte, error) {
	attemptCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		cancel()
		return nil, 0, nil, api.NewInternal(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	req.Header = p.Header.Clone()

	// Guard the time-to-headers only. Cancelling after headers would kill
	// the body read, so the timer is stopped as soon as Do returns.
	var timedOut atomic.Bool
	timer := time.AfterFunc(deadline, func() {
		timedOut.Store(true)
		cancel()
	})

	start := time.Now()
	resp, err := e.client.Do(req)
	timer.Stop()

	if err != nil {
		cancel()
		if timedOut.Load() {
			return nil, 0, nil, api.NewUpstreamTimeout(fmt.Sprintf("%s did not send response headers within the call deadline", p.Provider))
		}
		return nil, 0, nil, api.NewUpstreamUnreachable(fmt.Sprintf("%s unreachable: %s", p.Provider, err.Error()))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		resp.Body.Close()
		cancel()
		return nil, resp.StatusCode, body, nil
	}

	return &StreamHandle{
		body:    resp.Body,
		cancel:  cancel,
		Latency: time.Since(start),
	}, resp.StatusCode, nil, nil
}
