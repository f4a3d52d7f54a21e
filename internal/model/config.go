package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete claimcheck configuration
type Config struct {
	LLM          LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Models       ModelsConfig    `yaml:"models" mapstructure:"models"`
	Search       SearchConfig    `yaml:"search" mapstructure:"search"`
	Workflow     WorkflowConfig  `yaml:"workflow" mapstructure:"workflow"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Authority    AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	LinkCheck    LinkCheckConfig `yaml:"link_check" mapstructure:"link_check"`
	HTTP         HTTPConfig      `yaml:"http" mapstructure:"http"`
	Server       ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Telemetry    TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// LLMConfig configures the language model provider
type LLMConfig struct {
	Provider           string  `yaml:"provider" mapstructure:"provider" validate:"required,oneof=gemini openai anthropic claude ollama"`
	APIKey             string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL            string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout            int     `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds, 0 = provider default
	MaxTokens          int     `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Temperature        float32 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	StructuredAttempts int     `yaml:"structured_attempts" mapstructure:"structured_attempts" validate:"gte=1,lte=5"`
}

// ModelsConfig names the model used by each generative stage
type ModelsConfig struct {
	QueryGenerator string `yaml:"query_generator" mapstructure:"query_generator" validate:"required"`
	FactChecker    string `yaml:"fact_checker" mapstructure:"fact_checker" validate:"required"`
	PostWriter     string `yaml:"post_writer" mapstructure:"post_writer" validate:"required"`
}

// SearchConfig configures the evidence source
type SearchConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider" validate:"required,oneof=tavily"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Depth      string `yaml:"depth" mapstructure:"depth" validate:"required,oneof=basic advanced"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results" validate:"gte=1,lte=20"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds

	// Provider budget; 0 falls back to rate_limiting
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// WorkflowConfig tunes the fact-check workflow
type WorkflowConfig struct {
	MaxParallelSearches int  `yaml:"max_parallel_searches" mapstructure:"max_parallel_searches" validate:"gte=0"` // 0 = one worker per query
	StrictCitations     bool `yaml:"strict_citations" mapstructure:"strict_citations"`                            // reject instead of filter
}

// CacheConfig configures the search result cache
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir              string `yaml:"dir,omitempty" mapstructure:"dir"` // empty = memory only
	MemoryTTLMinutes int    `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes" validate:"gte=0"`
	DiskTTLHours     int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours" validate:"gte=0"`
}

// RateLimitConfig configures outbound search rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=1"`
}

// AuthorityConfig configures source authority classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regex to an authority tier
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// LinkCheckConfig configures citation reachability checks
type LinkCheckConfig struct {
	Timeout       int    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds
	MaxWorkers    int    `yaml:"max_workers" mapstructure:"max_workers" validate:"gte=0"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
}

// HTTPConfig holds outbound proxy settings shared by every HTTP client.
// Empty values fall back to the HTTP_PROXY, HTTPS_PROXY and NO_PROXY environment variables.
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string   `yaml:"addr" mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"` // seconds
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// TelemetryConfig toggles metrics and tracing
type TelemetryConfig struct {
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	Trace   bool `yaml:"trace" mapstructure:"trace"` // stdout span exporter
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:           "gemini",
			Timeout:            60,
			MaxTokens:          2048,
			Temperature:        0.3,
			StructuredAttempts: 2,
		},
		Models: ModelsConfig{
			QueryGenerator: "gemini-2.0-flash",
			FactChecker:    "gemini-2.5-flash",
			PostWriter:     "gemini-2.5-flash",
		},
		Search: SearchConfig{
			Provider:   "tavily",
			Depth:      "advanced",
			MaxResults: 5,
			Timeout:    30,
		},
		Workflow: WorkflowConfig{
			MaxParallelSearches: 0,
			StrictCitations:     false,
		},
		Cache: CacheConfig{
			Enabled:          true,
			MemoryTTLMinutes: 30,
			DiskTTLHours:     24,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"who.int", "cdc.gov", "nih.gov", "ncbi.nlm.nih.gov", "europa.eu",
				"un.org", "iarc.who.int", "nature.com", "science.org", "thelancet.com",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
				"bbc.co.uk", "bbc.com", "nytimes.com", "theguardian.com",
				"snopes.com", "politifact.com", "factcheck.org",
			},
		},
		LinkCheck: LinkCheckConfig{
			Timeout:       10,
			MaxWorkers:    8,
			RespectRobots: true,
			UserAgent:     "claimcheck/0.1 (+https://github.com/ppiankov/claimcheck)",
		},
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
		},
	}
}

// Validate checks the configuration against its declared constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Redacted returns a copy with credentials masked, for display
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "********"
	}
	if c.Search.APIKey != "" {
		c.Search.APIKey = "********"
	}
	return c
}
