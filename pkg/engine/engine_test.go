package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/executor"
	"github.com/rhuss/relais/pkg/provider"
)

// fakeAdapter is a minimal Adapter whose wire format is the canonical
// request itself, so tests can inspect what was sent without a second
// codec in the way.
type fakeAdapter struct {
	name string
	caps provider.Capabilities
	url  string
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Capabilities() provider.Capabilities { return f.caps }

func (f *fakeAdapter) Encode(req *api.ChatRequest, stream bool) (*provider.Payload, error) {
	req.Stream = stream
	body, err := json.Marshal(req)
	if err != nil {
		return nil, api.NewInternal(err.Error())
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &provider.Payload{
		Provider: f.name,
		URL:      f.url,
		Header:   header,
		Body:     body,
	}, nil
}

func (f *fakeAdapter) Decode(body []byte, latency time.Duration) (*api.ChatResult, error) {
	var parsed struct {
		Text      string         `json:"text"`
		Citations []api.Citation `json:"citations"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, api.NewInternal(err.Error())
	}
	return &api.ChatResult{
		Text:      parsed.Text,
		Citations: parsed.Citations,
		LatencyMS: latency.Milliseconds(),
		Raw:       body,
	}, nil
}

func (f *fakeAdapter) DecodeError(status int, body []byte, model string) error {
	return api.NewUpstreamStatus(status, fmt.Sprintf("status %d for model %s", status, model), body)
}

var _ provider.Adapter = (*fakeAdapter)(nil)

// recordingSink collects relayed events for assertions.
type recordingSink struct {
	events []api.StreamEvent
}

func (s *recordingSink) WriteEvent(ev api.StreamEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func testEngine(url string, caps provider.Capabilities) *Engine {
	e := New(executor.New(executor.Policy{MaxAttempts: 1}, nil), nil)
	e.Register(&fakeAdapter{name: "groq", caps: caps, url: url})
	return e
}

func chatCaps() provider.Capabilities {
	return provider.Capabilities{
		Streaming: true,
		MaxTokens: 8192,
		Deadline:  5 * time.Second,
	}
}

func TestChatUnknownProvider(t *testing.T) {
	e := testEngine("http://unused", chatCaps())

	req := validRequest()
	req.Provider = "mystery"
	_, err := e.Chat(context.Background(), req)

	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Kind != api.KindBadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestChatEmptyMessagesMakesNoOutboundCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	e := testEngine(srv.URL, chatCaps())
	req := &api.ChatRequest{Provider: "groq", Model: "llama-3.3-70b"}

	_, err := e.Chat(context.Background(), req)
	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Kind != api.KindBadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("outbound calls = %d, want 0", n)
	}
}

func TestChatSuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sent api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("payload not decodable: %v", err)
		}
		if sent.Stream {
			t.Error("buffered call must not set stream")
		}
		if sent.MaxTokens == nil || *sent.MaxTokens != 4096 {
			t.Errorf("normalized max_tokens not observed in payload: %v", sent.MaxTokens)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"hi there","id":"resp-1"}`)
	}))
	defer srv.Close()

	e := testEngine(srv.URL, chatCaps())

	out, err := e.Chat(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("envelope not valid JSON: %v", err)
	}
	if env["id"] != "resp-1" {
		t.Errorf("provider fields missing from envelope: %v", env)
	}
	if _, ok := env["performance"]; !ok {
		t.Errorf("performance block missing: %v", env)
	}
}

func TestChatSearchAugmentedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text":"grounded answer","citations":[{"title":"Doc","url":"https://d.example"}]}`)
	}))
	defer srv.Close()

	caps := chatCaps()
	caps.SearchAugmented = true
	e := testEngine(srv.URL, caps)

	out, err := e.Chat(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env SearchEnvelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if env.Answer != "grounded answer" {
		t.Errorf("answer = %q", env.Answer)
	}
	if len(env.Sources) != 1 || env.Sources[0].URL != "https://d.example" {
		t.Errorf("sources = %+v", env.Sources)
	}
}

func TestChatUpstreamErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := testEngine(srv.URL, chatCaps())

	_, err := e.Chat(context.Background(), validRequest())
	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", gwErr.Status)
	}
	if !strings.Contains(gwErr.Message, "llama-3.3-70b") {
		t.Errorf("model not interpolated into message: %q", gwErr.Message)
	}
}

func TestChatStreamRelaysChunksAndDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sent api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&sent); err == nil && !sent.Stream {
			t.Error("streaming call must set stream")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "Hello")
		fl.Flush()
		fmt.Fprint(w, " world")
		fl.Flush()
	}))
	defer srv.Close()

	e := testEngine(srv.URL, chatCaps())
	sink := &recordingSink{}

	if err := e.ChatStream(context.Background(), validRequest(), sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.events) == 0 {
		t.Fatal("no events relayed")
	}
	var text strings.Builder
	done := 0
	for _, ev := range sink.events {
		switch ev.Type {
		case api.EventDelta:
			text.WriteString(ev.Delta)
		case api.EventDone:
			done++
		default:
			t.Errorf("unexpected event %q", ev.Type)
		}
	}
	if text.String() != "Hello world" {
		t.Errorf("relayed text = %q", text.String())
	}
	if done != 1 {
		t.Errorf("done events = %d, want exactly 1", done)
	}
	if sink.events[len(sink.events)-1].Type != api.EventDone {
		t.Error("done must be the final event")
	}
}

func TestChatStreamUnsupportedProvider(t *testing.T) {
	caps := chatCaps()
	caps.Streaming = false
	e := testEngine("http://unused", caps)

	err := e.ChatStream(context.Background(), validRequest(), &recordingSink{})
	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Kind != api.KindBadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestChatStreamUpstreamErrorBeforeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := testEngine(srv.URL, chatCaps())
	sink := &recordingSink{}

	err := e.ChatStream(context.Background(), validRequest(), sink)
	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) || gwErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected upstream 429, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("no events should be written before the stream opens, got %d", len(sink.events))
	}
}
