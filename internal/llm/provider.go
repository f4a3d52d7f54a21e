package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrNonConforming is returned when the model output cannot be decoded into the requested schema
var ErrNonConforming = errors.New("model output does not conform to schema")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces free text. When req.OnToken is set the response is streamed
	// and every chunk is passed to OnToken in generation order.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// GenerateJSON produces a JSON document constrained by req.Schema
	GenerateJSON(ctx context.Context, req JSONRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// TokenFunc receives streamed text chunks. Returning an error aborts the stream.
type TokenFunc func(text string) error

// GenerateRequest contains the input for free-text generation
type GenerateRequest struct {
	Prompt    string
	System    string
	Model     string // Empty = provider default
	MaxTokens int    // 0 = provider default
	OnToken   TokenFunc
}

// JSONRequest contains the input for schema-constrained generation
type JSONRequest struct {
	Prompt     string
	System     string
	Model      string
	MaxTokens  int
	SchemaName string
	Schema     *jsonschema.Definition
}

// GenerateResponse contains the model output
type GenerateResponse struct {
	// Text is the complete generated text (the concatenation of streamed chunks)
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption when the provider reports it
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model is the default model name (provider-specific)
	Model string

	// APIKey for Gemini/OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "gemini",
		Timeout:     60,
		MaxTokens:   2048,
		Temperature: 0.3,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) model(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2048
}
