package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

func TestTavilyProvider_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer tvly-test" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}

		var body tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Query != "coffee cancer WHO" || body.SearchDepth != "advanced" || body.MaxResults != 5 {
			t.Errorf("Unexpected request body: %+v", body)
		}

		_, _ = w.Write([]byte(`{
			"query": "coffee cancer WHO",
			"results": [
				{"title": "IARC Monographs", "url": "https://www.iarc.who.int/coffee", "content": "Group 3", "score": 0.9},
				{"title": "Empty snippet", "url": "https://example.org/x", "content": "", "score": 0.4}
			],
			"response_time": 1.2
		}`))
	}))
	defer server.Close()

	provider, err := NewTavilyProvider(Config{APIKey: "tvly-test", BaseURL: server.URL + "/", Timeout: 5}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	results, err := provider.Search(context.Background(), Request{Query: "coffee cancer WHO", Depth: "advanced", MaxResults: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://www.iarc.who.int/coffee" || results[0].Title != "IARC Monographs" {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
	if results[1].Query != "coffee cancer WHO" {
		t.Errorf("Expected results to carry their query, got %q", results[1].Query)
	}
}

func TestTavilyProvider_Search_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query": "q", "results": []}`))
	}))
	defer server.Close()

	provider, _ := NewTavilyProvider(Config{APIKey: "k", BaseURL: server.URL}, nil)
	results, err := provider.Search(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Expected empty non-nil results, got %v", results)
	}
}

func TestTavilyProvider_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": {"error": "Unauthorized: missing or invalid API key."}}`))
	}))
	defer server.Close()

	provider, _ := NewTavilyProvider(Config{APIKey: "bad", BaseURL: server.URL}, nil)
	_, err := provider.Search(context.Background(), Request{Query: "q"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid API key") {
		t.Errorf("Expected status and detail in error, got: %v", err)
	}
}

func TestTavilyProvider_Search_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, _ := NewTavilyProvider(Config{APIKey: "k", BaseURL: server.URL}, nil)
	if _, err := provider.Search(context.Background(), Request{Query: "q"}); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestTavilyProvider_Search_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	limiter := worker.NewLimiter(0.001, 1)
	provider, _ := NewTavilyProvider(Config{APIKey: "k", BaseURL: server.URL}, limiter)

	if _, err := provider.Search(context.Background(), Request{Query: "first"}); err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := provider.Search(ctx, Request{Query: "second"}); err == nil {
		t.Error("Expected rate limit wait to fail on cancelled context")
	}
}

func TestNewTavilyProvider_RequiresKey(t *testing.T) {
	if _, err := NewTavilyProvider(Config{}, nil); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestTavilyProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	provider, _ := NewTavilyProvider(Config{APIKey: "k", BaseURL: server.URL}, nil)
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "Tavily", APIKey: "k"}, nil); err != nil {
		t.Errorf("Expected tavily provider, got error: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "bing"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
	if _, err := NewProvider(Config{}, nil); err == nil {
		t.Error("Expected error for empty provider")
	}
	if APIKeyEnv("tavily") != "TAVILY_API_KEY" {
		t.Error("Unexpected key env for tavily")
	}
}

func TestTavilyProvider_ProviderBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	// The shared default is generous; the provider budget allows one request
	limiter := worker.NewLimiter(1000, 10)
	provider, err := NewTavilyProvider(Config{APIKey: "k", BaseURL: server.URL, RequestsPerSecond: 0.001, Burst: 1}, limiter)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Search(context.Background(), Request{Query: "first"}); err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := provider.Search(ctx, Request{Query: "second"}); err == nil {
		t.Error("Expected the provider budget to hold back the second search")
	}
}

func TestConfigFromModel_Budget(t *testing.T) {
	cfg := ConfigFromModel(model.SearchConfig{Provider: "tavily", RequestsPerSecond: 2, Burst: 3})
	if cfg.RequestsPerSecond != 2 || cfg.Burst != 3 {
		t.Errorf("Unexpected budget: %+v", cfg)
	}
}
