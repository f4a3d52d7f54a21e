package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// TavilyBaseURL is the public Tavily API endpoint
const TavilyBaseURL = "https://api.tavily.com"

// TavilyProvider implements Provider using the Tavily search API
type TavilyProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *worker.Limiter
}

type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyError struct {
	Detail json.RawMessage `json:"detail"`
}

// NewTavilyProvider creates a new Tavily provider. limiter may be nil.
func NewTavilyProvider(config Config, limiter *worker.Limiter) (*TavilyProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = TavilyBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	if limiter != nil && config.RequestsPerSecond > 0 {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Host == "" {
			return nil, fmt.Errorf("invalid tavily base URL %q", baseURL)
		}
		limiter.SetHostRate(parsed.Host, config.RequestsPerSecond, config.Burst)
	}

	return &TavilyProvider{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		httpClient: util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		limiter:    limiter,
	}, nil
}

// Name returns the provider name
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// Search runs one query against /search
func (p *TavilyProvider) Search(ctx context.Context, req Request) ([]model.SearchResult, error) {
	endpoint := p.baseURL + "/search"

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       string(req.Query),
		SearchDepth: req.Depth,
		MaxResults:  req.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr tavilyError
		if json.Unmarshal(respBody, &apiErr) == nil && len(apiErr.Detail) > 0 {
			return nil, fmt.Errorf("tavily error (status %d): %s", resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("tavily error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var tr tavilyResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(tr.Results))
	for _, r := range tr.Results {
		results = append(results, model.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Query:   req.Query,
		})
	}
	return results, nil
}

// IsAvailable reports whether a minimal search succeeds with the configured key
func (p *TavilyProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.Search(ctx, Request{Query: "ping", Depth: "basic", MaxResults: 1})
	return err == nil
}
