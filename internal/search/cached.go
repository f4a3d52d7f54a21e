package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/rs/zerolog"
)

// CachedProvider serves repeated searches from a cache.
// Only successful searches are stored; entries use the cache's default TTL.
type CachedProvider struct {
	next   Provider
	cache  cache.Cache
	logger zerolog.Logger
}

// NewCachedProvider wraps next with c
func NewCachedProvider(next Provider, c cache.Cache, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  c,
		logger: logger.With().Str("component", "search_cache").Logger(),
	}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// Search returns the cached results for req or delegates and stores the answer
func (p *CachedProvider) Search(ctx context.Context, req Request) ([]model.SearchResult, error) {
	key := cache.Key("search", p.next.Name(),
		strings.ToLower(strings.TrimSpace(string(req.Query))), req.Depth, strconv.Itoa(req.MaxResults))

	if data, found := p.cache.Get(key); found {
		var results []model.SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			p.logger.Debug().Str("query", string(req.Query)).Int("results", len(results)).Msg("cache hit")
			for i := range results {
				results[i].Query = req.Query
			}
			return results, nil
		}
		_ = p.cache.Delete(key)
	}

	results, err := p.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := p.cache.Set(key, data, 0); err != nil {
			p.logger.Warn().Err(err).Msg("cache write failed")
		}
	}
	return results, nil
}

// IsAvailable delegates to the wrapped provider when it supports availability checks
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	if checker, ok := p.next.(interface{ IsAvailable(context.Context) bool }); ok {
		return checker.IsAvailable(ctx)
	}
	return true
}
