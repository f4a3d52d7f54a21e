package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Generator wraps a Provider with schema-constrained decoding and validation.
// Non-conforming output is re-requested up to attempts times; provider faults are not retried.
type Generator struct {
	provider Provider
	attempts int
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewGenerator creates a generator. attempts < 1 is treated as 1.
func NewGenerator(provider Provider, attempts int, logger zerolog.Logger) *Generator {
	if attempts < 1 {
		attempts = 1
	}
	return &Generator{
		provider: provider,
		attempts: attempts,
		validate: validator.New(),
		logger:   logger.With().Str("component", "llm").Str("provider", provider.Name()).Logger(),
	}
}

// Provider returns the underlying provider
func (g *Generator) Provider() Provider {
	return g.provider
}

// Text generates free text, streaming chunks to onToken when it is non-nil
func (g *Generator) Text(ctx context.Context, model, prompt string, onToken TokenFunc) (string, error) {
	resp, err := g.provider.Generate(ctx, GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		OnToken: onToken,
	})
	if err != nil {
		return "", err
	}

	g.logger.Debug().Str("model", resp.Model).Int("tokens", resp.TokensUsed).Msg("text generated")
	return resp.Text, nil
}

// Structured generates a value conforming to the schema of out (a pointer to a struct).
// The decoded value is checked with its `validate` tags before it is accepted.
func (g *Generator) Structured(ctx context.Context, model, prompt, name string, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("structured output target must be a non-nil pointer, got %T", out)
	}

	schema, err := SchemaFor(target.Elem().Interface())
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		resp, err := g.provider.GenerateJSON(ctx, JSONRequest{
			Model:      model,
			Prompt:     prompt,
			SchemaName: name,
			Schema:     schema,
		})
		if err != nil {
			return err
		}

		target.Elem().Set(reflect.Zero(target.Elem().Type()))
		if err := decodeJSON(resp.Text, out); err != nil {
			lastErr = err
		} else if err := g.check(out); err != nil {
			lastErr = err
		} else {
			g.logger.Debug().Str("schema", name).Str("model", resp.Model).Int("attempt", attempt).Msg("structured output accepted")
			return nil
		}

		g.logger.Warn().Err(lastErr).Str("schema", name).Int("attempt", attempt).Msg("structured output rejected")
	}

	return fmt.Errorf("%w: %s after %d attempt(s): %v", ErrNonConforming, name, g.attempts, lastErr)
}

func (g *Generator) check(out any) error {
	if reflect.Indirect(reflect.ValueOf(out)).Kind() != reflect.Struct {
		return nil
	}
	return g.validate.Struct(out)
}

// SchemaFor derives a JSON schema from a Go value's type (json/description/enum tags)
func SchemaFor(v any) (*jsonschema.Definition, error) {
	schema, err := jsonschema.GenerateSchemaForType(v)
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	return schema, nil
}

// schemaInstruction builds a system prompt asking for JSON only, for providers
// without a native schema-constrained response format
func schemaInstruction(system string, schema *jsonschema.Definition) (string, error) {
	if schema == nil {
		return "", fmt.Errorf("schema is required")
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	instruction := "Respond ONLY with a single JSON object that conforms to this JSON Schema. " +
		"Do not add explanations or markdown.\n" + string(raw)
	if system == "" {
		return instruction, nil
	}
	return system + "\n\n" + instruction, nil
}

// decodeJSON unmarshals model output, tolerating markdown fences and surrounding prose
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in output")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	return nil
}
