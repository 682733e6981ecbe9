package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/relay"
)

// writerState tracks the state of an SSE stream writer.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // at least one event written
	writerCompleted                    // [DONE] sent
)

// streamWriter serializes relay events as SSE frames. It is the relay.Sink
// of a streaming request: WriteEvent does not return until the frame has
// been flushed to the client, which is what propagates client-side
// backpressure into the relay's read loop.
type streamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

var _ relay.Sink = (*streamWriter)(nil)

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	return &streamWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEvent sends a single SSE frame:
//
//	data: {payload}\n
//	\n
//
// A Done event is the literal frame "data: [DONE]" and completes the
// writer; no further events are accepted after it.
func (s *streamWriter) WriteEvent(ev api.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write event: stream is completed")
	}

	// First event: set SSE headers before any body bytes.
	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	switch ev.Type {
	case api.EventDelta:
		return s.writeData(ev.Delta)
	case api.EventToolCallDelta:
		return s.writeData(string(ev.ToolCall))
	case api.EventError:
		payload, err := json.Marshal(map[string]string{"error": ev.Err})
		if err != nil {
			return fmt.Errorf("failed to marshal error event: %w", err)
		}
		return s.writeData(string(payload))
	case api.EventDone:
		if err := s.writeData("[DONE]"); err != nil {
			return err
		}
		s.state = writerCompleted
		return nil
	default:
		return fmt.Errorf("unknown stream event type %q", ev.Type)
	}
}

// writeData frames a payload as one SSE data event and flushes it. A
// payload spanning multiple lines becomes consecutive data lines of the
// same event, per the SSE wire format.
func (s *streamWriter) writeData(payload string) error {
	for _, line := range strings.Split(strings.TrimRight(payload, "\n"), "\n") {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// started reports whether any event has been written. The adapter uses it
// to decide between a JSON error response and a mid-stream failure that
// the relay has already terminated.
func (s *streamWriter) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != writerIdle
}
