// Package relay re-frames an upstream byte stream into the gateway's
// outbound event stream.
//
// The relay is a three-state machine (Idle, Relaying, Closed). It forwards
// each upstream chunk before requesting the next one, so upstream read
// pressure propagates directly into the outbound transport's flow control;
// nothing is buffered beyond a single read. Chunk boundaries need not be
// preserved, ordering always is, and the outbound stream terminates with
// exactly one Done event whether upstream completed or failed.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/debug"
)

// readBufferSize bounds how much upstream data is held in flight.
const readBufferSize = 4096

// State identifies where the relay is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRelaying
	StateClosed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRelaying:
		return "relaying"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sink receives outbound stream events. The transport's SSE writer
// implements it; WriteEvent must not return until the event has been
// handed to the client connection (flushed), which is what makes the
// relay's forward-then-read loop exert backpressure.
type Sink interface {
	WriteEvent(ev api.StreamEvent) error
}

// Relay pumps one upstream stream to one sink. A Relay is used for a single
// request and must not be reused.
type Relay struct {
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a Relay in the Idle state.
func New(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{logger: logger}
}

// State returns the current lifecycle state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run relays upstream to sink until upstream ends or fails. It always closes
// upstream, and on every path except a dead client it terminates the
// outbound stream with exactly one Done event.
//
// On an upstream read error one Error event is emitted, immediately followed
// by the Done, so a consumer can rely on Done as the sole end-of-stream
// signal. If writing to the sink fails (client disconnected), the upstream
// read is abandoned by closing the handle, which cancels the upstream
// request.
func (r *Relay) Run(ctx context.Context, upstream io.ReadCloser, sink Sink) error {
	defer upstream.Close()
	defer r.setState(StateClosed)
	r.setState(StateRelaying)

	buf := make([]byte, readBufferSize)
	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			debug.Trace("relay", "chunk forwarded", "bytes", n)
			ev := api.StreamEvent{Type: api.EventDelta, Delta: string(buf[:n])}
			if werr := sink.WriteEvent(ev); werr != nil {
				r.logger.Debug("client disconnected during relay", "error", werr.Error())
				return werr
			}
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			return sink.WriteEvent(api.StreamEvent{Type: api.EventDone})
		}

		// Upstream read failed. A cancelled context means the client went
		// away and took the upstream connection with it; there is nobody
		// left to signal.
		if ctx.Err() != nil {
			r.logger.Debug("relay cancelled", "error", err.Error())
			return ctx.Err()
		}

		r.logger.Warn("upstream stream read failed", "error", err.Error())
		if werr := sink.WriteEvent(api.StreamEvent{Type: api.EventError, Err: err.Error()}); werr != nil {
			return werr
		}
		if werr := sink.WriteEvent(api.StreamEvent{Type: api.EventDone}); werr != nil {
			return werr
		}
		return err
	}
}
