package search

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// NewProvider creates a search provider based on configuration
func NewProvider(config Config, limiter *worker.Limiter) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "tavily":
		return NewTavilyProvider(config, limiter)
	case "":
		return nil, fmt.Errorf("no search provider configured")
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily)", config.Provider)
	}
}

// ConfigFromModel converts model.SearchConfig to search.Config
func ConfigFromModel(modelConfig model.SearchConfig) Config {
	return Config{
		Provider: modelConfig.Provider,
		APIKey:   modelConfig.APIKey,
		BaseURL:  modelConfig.BaseURL,
		Timeout:  modelConfig.Timeout,

		RequestsPerSecond: modelConfig.RequestsPerSecond,
		Burst:             modelConfig.Burst,
	}
}

// APIKeyEnv returns the environment variable that conventionally holds the provider key
func APIKeyEnv(provider string) string {
	if strings.ToLower(provider) == "tavily" {
		return "TAVILY_API_KEY"
	}
	return ""
}
