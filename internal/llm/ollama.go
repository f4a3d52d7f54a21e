package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/util"
)

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	System  string          `json:"system,omitempty"`
	Format  json.RawMessage `json:"format,omitempty"` // JSON schema for structured output
	Options ollamaOptions   `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	Error     string `json:"error,omitempty"`

	// Token counts (only present when done=true)
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.timeout(120 * time.Second), // Ollama can be slower for local models
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running by listing local models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (request creation): %v\n", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (connection to %s): %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (HTTP %d from %s)\n", resp.StatusCode, p.baseURL)
		return false
	}

	return true
}

// Generate produces free text; streamed as NDJSON when req.OnToken is set
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	apiReq, err := p.buildRequest(req.Model, req.System, req.Prompt, req.MaxTokens)
	if err != nil {
		return nil, err
	}
	apiReq.Stream = req.OnToken != nil

	resp, err := p.makeRequest(ctx, apiReq, req.OnToken)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if req.OnToken == nil {
		resp.Text = strings.TrimSpace(resp.Text)
	}
	return resp, nil
}

// GenerateJSON uses Ollama's structured outputs (format = JSON schema)
func (p *OllamaProvider) GenerateJSON(ctx context.Context, req JSONRequest) (*GenerateResponse, error) {
	if req.Schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	apiReq, err := p.buildRequest(req.Model, req.System, req.Prompt, req.MaxTokens)
	if err != nil {
		return nil, err
	}

	format, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	apiReq.Format = format

	resp, err := p.makeRequest(ctx, apiReq, nil)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	resp.Text = strings.TrimSpace(resp.Text)
	return resp, nil
}

func (p *OllamaProvider) buildRequest(model, system, prompt string, maxTokens int) (ollamaRequest, error) {
	model = p.config.model(model, "")
	if model == "" {
		return ollamaRequest{}, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	return ollamaRequest{
		Model:  model,
		Prompt: prompt,
		System: system,
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.maxTokens(maxTokens),
		},
	}, nil
}

// makeRequest posts to /api/generate. With Stream set, each NDJSON line is a chunk.
func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest, onToken TokenFunc) (*GenerateResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	result := &GenerateResponse{Model: apiReq.Model}
	var text strings.Builder

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		if chunk.Error != "" {
			return nil, fmt.Errorf("stream error: %s", chunk.Error)
		}
		if chunk.Model != "" {
			result.Model = chunk.Model
		}

		if chunk.Response != "" {
			text.WriteString(chunk.Response)
			if onToken != nil {
				if err := onToken(chunk.Response); err != nil {
					return nil, err
				}
			}
		}

		if chunk.Done {
			result.TokensUsed = chunk.PromptEvalCount + chunk.EvalCount
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result.Text = text.String()
	if result.TokensUsed == 0 {
		// Rough estimate: 1 token ≈ 4 characters
		result.TokensUsed = (len(apiReq.Prompt) + len(result.Text)) / 4
	}

	return result, nil
}
