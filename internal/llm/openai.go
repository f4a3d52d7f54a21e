package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// OpenAIProvider implements the Provider interface for OpenAI-compatible chat APIs
type OpenAIProvider struct {
	name         string
	defaultModel string
	client       *openai.Client
	config       Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return newChatProvider("openai", openai.GPT4oMini, config), nil
}

// NewGeminiProvider creates a provider for Gemini models through the OpenAI-compatible endpoint
func NewGeminiProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = GeminiBaseURL
	}
	return newChatProvider("gemini", "gemini-2.5-flash", config), nil
}

func newChatProvider(name, defaultModel string, config Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		name:         name,
		defaultModel: defaultModel,
		client:       openai.NewClientWithConfig(clientConfig),
		config:       config,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s API check failed: %v\n", p.name, err)
		return false
	}
	return true
}

// Generate produces free text using the Chat Completions API
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	chatReq := p.chatRequest(req.Model, req.System, req.Prompt, req.MaxTokens)

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	if req.OnToken != nil {
		return p.stream(ctx, chatReq, req.OnToken)
	}
	return p.complete(ctx, chatReq)
}

// GenerateJSON produces a JSON document constrained by a JSON schema response format
func (p *OpenAIProvider) GenerateJSON(ctx context.Context, req JSONRequest) (*GenerateResponse, error) {
	if req.Schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	chatReq := p.chatRequest(req.Model, req.System, req.Prompt, req.MaxTokens)
	chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.SchemaName,
			Schema: req.Schema,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	return p.complete(ctx, chatReq)
}

func (p *OpenAIProvider) chatRequest(model, system, prompt string, maxTokens int) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	return openai.ChatCompletionRequest{
		Model:       p.config.model(model, p.defaultModel),
		Messages:    messages,
		MaxTokens:   p.config.maxTokens(maxTokens),
		Temperature: p.config.Temperature,
	}
}

func (p *OpenAIProvider) complete(ctx context.Context, chatReq openai.ChatCompletionRequest) (*GenerateResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	return &GenerateResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func (p *OpenAIProvider) stream(ctx context.Context, chatReq openai.ChatCompletionRequest, onToken TokenFunc) (*GenerateResponse, error) {
	chatReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	defer func() { _ = stream.Close() }()

	var text strings.Builder
	model := chatReq.Model
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s stream error: %w", p.name, err)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if err := onToken(delta); err != nil {
			return nil, err
		}
	}

	return &GenerateResponse{
		Text:  text.String(),
		Model: model,
	}, nil
}
