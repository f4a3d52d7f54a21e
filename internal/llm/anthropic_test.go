package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_123", "type": "message", "role": "assistant",
			"content": [{"type": "text", "text": "Coffee is not a proven carcinogen."}],
			"model": "claude-3-5-sonnet-20241022",
			"usage": {"input_tokens": 50, "output_tokens": 50}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-sonnet-20241022",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "Is coffee safe?"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != "Coffee is not a proven carcinogen." {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Generate_Stream(t *testing.T) {
	deltas := []string{"Fact", "-check: ", "misleading!"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream {
			t.Error("Expected stream=true in request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-test\",\"usage\":{\"input_tokens\":7}}}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {\"type\":\"ping\"}\n\n")
		for _, d := range deltas {
			payload, _ := json.Marshal(map[string]any{
				"type":  "content_block_delta",
				"index": 0,
				"delta": map[string]string{"type": "text_delta", "text": d},
			})
			fmt.Fprintf(w, "event: content_block_delta\ndata: %s\n\n", payload)
		}
		fmt.Fprint(w, "event: message_delta\ndata: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":3}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	var got []string
	resp, err := provider.Generate(context.Background(), GenerateRequest{
		Prompt: "post",
		OnToken: func(text string) error {
			got = append(got, text)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if strings.Join(got, "|") != strings.Join(deltas, "|") {
		t.Errorf("Unexpected token sequence: %v", got)
	}
	if resp.Text != "Fact-check: misleading!" {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.Model != "claude-test" {
		t.Errorf("Expected model from message_start, got %s", resp.Model)
	}
	if resp.TokensUsed != 10 {
		t.Errorf("Expected 10 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_GenerateJSON_SchemaInSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !strings.Contains(body.System, "JSON Schema") || !strings.Contains(body.System, `"queries"`) {
			t.Errorf("Expected schema in system prompt, got %q", body.System)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"queries\":[\"q1\"]}"}],"model":"m"}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	schema, err := SchemaFor(struct {
		Queries []string `json:"queries"`
	}{})
	if err != nil {
		t.Fatalf("SchemaFor failed: %v", err)
	}

	resp, err := provider.GenerateJSON(context.Background(), JSONRequest{Prompt: "q", SchemaName: "s", Schema: schema})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if resp.Text != `{"queries":["q1"]}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
}

func TestAnthropicProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid_request_error") {
		t.Errorf("Expected error to contain API error type, got: %v", err)
	}
}

func TestAnthropicProvider_Generate_StreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), GenerateRequest{
		Prompt:  "x",
		OnToken: func(string) error { return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "overloaded_error") {
		t.Fatalf("Expected overloaded stream error, got %v", err)
	}
}

func TestAnthropicProvider_Generate_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello"}],"model":"claude-3-5-haiku-20241022"}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}
