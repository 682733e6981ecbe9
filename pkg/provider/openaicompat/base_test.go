package openaicompat

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rhuss/relais/pkg/api"
	"github.com/rhuss/relais/pkg/provider"
)

func testBase() Base {
	return NewBase(Config{
		Name:     "testprov",
		APIKey:   "sk-test",
		Endpoint: "https://api.example.com/v1/chat/completions/",
		Capabilities: provider.Capabilities{
			Streaming:  true,
			MaxTokens:  4096,
			Deadline:   30 * time.Second,
		},
	})
}

func TestEncodeForcesStreamFlag(t *testing.T) {
	b := testBase()
	req := &api.ChatRequest{
		Model:    "test-model",
		Messages: []api.Message{{Role: "user", Content: "hi"}},
		Stream:   true, // client lies; endpoint decided buffered
	}

	p, err := b.Encode(req, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got ChatCompletionRequest
	if err := json.Unmarshal(p.Body, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.Stream {
		t.Error("payload stream = true, want false (call mode wins over client flag)")
	}

	p, err = b.Encode(&api.ChatRequest{
		Model:    "test-model",
		Messages: []api.Message{{Role: "user", Content: "hi"}},
		Stream:   false,
	}, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := json.Unmarshal(p.Body, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !got.Stream {
		t.Error("payload stream = false, want true")
	}
	if p.Header.Get("Accept") != "text/event-stream" {
		t.Errorf("Accept = %q, want text/event-stream", p.Header.Get("Accept"))
	}
}

func TestEncodeHeadersAndEndpoint(t *testing.T) {
	b := testBase()
	p, err := b.Encode(&api.ChatRequest{
		Messages: []api.Message{{Role: "user", Content: "hi"}},
	}, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := p.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if p.URL != "https://api.example.com/v1/chat/completions" {
		t.Errorf("URL = %q, trailing slash not trimmed", p.URL)
	}
	if p.Provider != "testprov" {
		t.Errorf("Provider = %q", p.Provider)
	}
}

func TestEncodeMissingKey(t *testing.T) {
	b := NewBase(Config{Name: "openai", Endpoint: "https://api.openai.com"})
	_, err := b.Encode(&api.ChatRequest{Messages: []api.Message{{Role: "user", Content: "hi"}}}, false)

	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T", err)
	}
	if gwErr.Kind != api.KindConfigMissing {
		t.Errorf("Kind = %q, want %q", gwErr.Kind, api.KindConfigMissing)
	}
}

func TestEncodeOmitsUnsetOptionals(t *testing.T) {
	b := testBase()
	p, err := b.Encode(&api.ChatRequest{
		Messages: []api.Message{{Role: "user", Content: "hi"}},
	}, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(p.Body, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"temperature", "top_p", "max_tokens", "tools", "tool_choice"} {
		if _, present := raw[key]; present {
			t.Errorf("unset field %q present in payload (must be omitted, not null)", key)
		}
	}
}

func TestEncodeMaxTokensObservable(t *testing.T) {
	b := testBase()
	mt := 2048
	p, err := b.Encode(&api.ChatRequest{
		Messages:  []api.Message{{Role: "user", Content: "hi"}},
		MaxTokens: &mt,
	}, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got ChatCompletionRequest
	if err := json.Unmarshal(p.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 2048 {
		t.Errorf("max_tokens in payload = %v, want 2048", got.MaxTokens)
	}
}

func TestEncodeToolChoiceRequiresTools(t *testing.T) {
	b := testBase()
	p, err := b.Encode(&api.ChatRequest{
		Messages:   []api.Message{{Role: "user", Content: "hi"}},
		ToolChoice: "auto",
	}, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var raw map[string]any
	json.Unmarshal(p.Body, &raw)
	if _, present := raw["tool_choice"]; present {
		t.Error("tool_choice must be dropped when no tools are present")
	}
}

func TestDecodeSuccess(t *testing.T) {
	b := testBase()
	body := []byte(`{
		"id":"chatcmpl-1","object":"chat.completion","model":"test-model",
		"choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"},"finish_reason":"stop"}],
		"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}
	}`)

	result, err := b.Decode(body, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if result.Text != "Hello there" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 13 {
		t.Errorf("Usage = %+v", result.Usage)
	}
	if result.LatencyMS != 150 {
		t.Errorf("LatencyMS = %d, want 150", result.LatencyMS)
	}
	if string(result.Raw) != string(body) {
		t.Error("Raw body not preserved")
	}
}

func TestDecodeNoChoices(t *testing.T) {
	b := testBase()
	_, err := b.Decode([]byte(`{"id":"x","choices":[]}`), 0)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

// Round-trip: encoding a request then decoding a synthetic body that echoes
// the message content must reproduce that content in the result text.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := testBase()
	content := "What is the capital of Estonia?"
	req := &api.ChatRequest{
		Model:    "test-model",
		Messages: []api.Message{{Role: "user", Content: content}},
	}

	p, err := b.Encode(req, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var encoded ChatCompletionRequest
	if err := json.Unmarshal(p.Body, &encoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(encoded.Messages) != 1 || encoded.Messages[0].Content != content {
		t.Fatalf("encoded messages = %+v", encoded.Messages)
	}

	// Synthesize a success body echoing the encoded message.
	synthetic, _ := json.Marshal(ChatCompletionResponse{
		ID:    "chatcmpl-rt",
		Model: encoded.Model,
		Choices: []ChatChoice{{
			Message:      ChatResponseMessage{Role: "assistant", Content: &encoded.Messages[0].Content},
			FinishReason: "stop",
		}},
	})

	result, err := b.Decode(synthetic, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if result.Text != content {
		t.Errorf("round-trip text = %q, want %q", result.Text, content)
	}
}

func TestDecodeErrorMapping(t *testing.T) {
	b := testBase()
	tests := []struct {
		status   int
		body     string
		wantKind api.ErrorKind
		wantMsg  string
	}{
		{401, `{"error":{"message":"Incorrect API key provided"}}`, api.KindUpstreamStatus, "Incorrect API key provided"},
		{401, ``, api.KindUpstreamStatus, "authentication with testprov failed: invalid or missing API key"},
		{404, `{}`, api.KindUpstreamStatus, `model "gpt-9" not found on testprov`},
		{429, ``, api.KindUpstreamStatus, "testprov rate limit exceeded"},
		{502, ``, api.KindUpstreamTimeout, "testprov gateway timeout (HTTP 502)"},
		{504, ``, api.KindUpstreamTimeout, "testprov gateway timeout (HTTP 504)"},
		{500, `{"error":{"message":"internal"}}`, api.KindUpstreamStatus, "internal"},
		{418, ``, api.KindUpstreamStatus, "unexpected testprov error (HTTP 418)"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			err := b.DecodeError(tt.status, []byte(tt.body), "gpt-9")
			var gwErr *api.GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected GatewayError, got %T", err)
			}
			if gwErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", gwErr.Kind, tt.wantKind)
			}
			if gwErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", gwErr.Message, tt.wantMsg)
			}
			if gwErr.Kind == api.KindUpstreamStatus && gwErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", gwErr.Status, tt.status)
			}
		})
	}
}

func TestDecodeErrorPreservesDetails(t *testing.T) {
	b := testBase()
	body := []byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
	err := b.DecodeError(403, body, "m")

	var gwErr *api.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T", err)
	}
	if string(gwErr.Details) != string(body) {
		t.Errorf("Details = %s, want raw body preserved", gwErr.Details)
	}
}
