package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"claude-adapter-go/internal/adapter"
	"claude-adapter-go/internal/anthropic"
	"claude-adapter-go/internal/modelcatalog"
)

func testConfig(t *testing.T, upstreamURL string) *adapter.Config {
	t.Helper()
	return &adapter.Config{
		ListenAddr: ":0",
		Provider: adapter.ProviderConfig{
			Name:       "custom",
			BaseURL:    upstreamURL,
			ToolFormat: "native",
			Models:     modelcatalog.Mapping{Opus: "gpt-4o", Sonnet: "gpt-4o", Haiku: "gpt-4o-mini"},
		},
		RequestTimeoutSeconds: 30,
		DataDir:               t.TempDir(),
	}
}

func TestHandleHealth(t *testing.T) {
	s := New(testConfig(t, "http://unused"), logr.Discard())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestHandleMessages_NonStreaming(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "x1",
			"choices": [{"message": {"content": "Hi"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1}
		}`))
	}))
	defer upstream.Close()

	s := New(testConfig(t, upstream.URL), logr.Discard())

	reqBody := `{"model":"claude-3-5-sonnet","max_tokens":100,"messages":[{"role":"user","content":"Say hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}

	var out anthropic.MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "msg_x1" {
		t.Errorf("ID = %q, want msg_x1", out.ID)
	}
	if out.Model != "claude-3-5-sonnet" {
		t.Errorf("Model = %q, want echoed requested model", out.Model)
	}
	if len(out.Content) != 1 || out.Content[0].Text != "Hi" {
		t.Fatalf("Content = %+v", out.Content)
	}
	if out.StopReason == nil || *out.StopReason != "end_turn" {
		t.Errorf("StopReason = %v, want end_turn", out.StopReason)
	}
}

func TestHandleMessages_ValidationFailure(t *testing.T) {
	s := New(testConfig(t, "http://unused"), logr.Discard())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"x"}`))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var out anthropic.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error.Type != "invalid_request_error" {
		t.Errorf("error.type = %q, want invalid_request_error", out.Error.Type)
	}
	if !strings.Contains(out.Error.Message, "max_tokens") || !strings.Contains(out.Error.Message, "messages") {
		t.Errorf("error.message = %q, want it to mention both missing fields", out.Error.Message)
	}
}

func TestHandleMessages_EmptyMessages(t *testing.T) {
	s := New(testConfig(t, "http://unused"), logr.Discard())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"x","max_tokens":10,"messages":[]}`))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleMessages_UpstreamErrorMapsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer upstream.Close()

	s := New(testConfig(t, upstream.URL), logr.Discard())

	reqBody := `{"model":"claude-3-5-sonnet","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var out anthropic.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error.Type != "authentication_error" {
		t.Errorf("error.type = %q, want authentication_error", out.Error.Type)
	}
}

func TestHandleMessages_Streaming(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		lines := []string{
			`data: {"choices":[{"delta":{"content":"Hi"}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`data: {"usage":{"prompt_tokens":2,"completion_tokens":1}}`,
			`data: [DONE]`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n\n"))
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	s := New(testConfig(t, upstream.URL), logr.Discard())

	reqBody := `{"model":"claude-3-5-haiku","max_tokens":100,"stream":true,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"event: message_start", "event: content_block_start", "event: content_block_delta", "event: content_block_stop", "event: message_delta", "event: message_stop"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream body missing %q\nfull body:\n%s", want, body)
		}
	}
}

func TestHandleMessages_MethodAndBody(t *testing.T) {
	s := New(testConfig(t, "http://unused"), logr.Discard())
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
