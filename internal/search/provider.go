package search

import (
	"context"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Provider is an evidence source: one query in, ranked snippets out
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search runs a single query. Zero results is not an error.
	Search(ctx context.Context, req Request) ([]model.SearchResult, error)
}

// Request describes one search
type Request struct {
	Query      model.SearchQuery
	Depth      string // "basic" or "advanced"
	MaxResults int
}

// Config holds search provider configuration
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  int // seconds

	// Per-provider rate budget, applied to the provider host on the shared limiter
	RequestsPerSecond float64
	Burst             int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}
