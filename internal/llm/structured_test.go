package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/rs/zerolog"
)

// MockProvider replays canned responses for testing
type MockProvider struct {
	responses []string
	err       error
	calls     int
	lastJSON  JSONRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	text := m.next()
	if req.OnToken != nil {
		if err := req.OnToken(text); err != nil {
			return nil, err
		}
	}
	return &GenerateResponse{Text: text, Model: "mock-model"}, nil
}

func (m *MockProvider) GenerateJSON(ctx context.Context, req JSONRequest) (*GenerateResponse, error) {
	m.calls++
	m.lastJSON = req
	if m.err != nil {
		return nil, m.err
	}
	return &GenerateResponse{Text: m.next(), Model: "mock-model"}, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return m.err == nil }

func (m *MockProvider) next() string {
	if len(m.responses) == 0 {
		return ""
	}
	text := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return text
}

func TestGenerator_Structured_Success(t *testing.T) {
	mock := &MockProvider{responses: []string{
		`{"verdict":"False","confidence_score":0.9,"rationale":"WHO says no.","citations":["https://who.int/a"]}`,
	}}
	gen := NewGenerator(mock, 2, zerolog.Nop())

	var verdict model.Verdict
	if err := gen.Structured(context.Background(), "m", "prompt", "fact_check", &verdict); err != nil {
		t.Fatalf("Structured failed: %v", err)
	}

	if verdict.Label != model.LabelFalse || verdict.Confidence != 0.9 {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
	if mock.lastJSON.SchemaName != "fact_check" || mock.lastJSON.Schema == nil {
		t.Errorf("Expected schema to be sent, got %+v", mock.lastJSON)
	}
	if _, ok := mock.lastJSON.Schema.Properties["confidence_score"]; !ok {
		t.Errorf("Expected schema to use JSON field names, got %v", mock.lastJSON.Schema.Properties)
	}
}

func TestGenerator_Structured_RetriesNonConforming(t *testing.T) {
	mock := &MockProvider{responses: []string{
		`{"verdict":"Probably","confidence_score":0.5,"rationale":"x","citations":[]}`,
		"```json\n{\"verdict\":\"True\",\"confidence_score\":0.7,\"rationale\":\"ok\",\"citations\":[]}\n```",
	}}
	gen := NewGenerator(mock, 2, zerolog.Nop())

	var verdict model.Verdict
	if err := gen.Structured(context.Background(), "m", "prompt", "fact_check", &verdict); err != nil {
		t.Fatalf("Structured failed: %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", mock.calls)
	}
	if verdict.Label != model.LabelTrue {
		t.Errorf("Expected second attempt to win, got %+v", verdict)
	}
}

func TestGenerator_Structured_GivesUp(t *testing.T) {
	mock := &MockProvider{responses: []string{`{"verdict":"True","confidence_score":1.7,"rationale":"x","citations":[]}`}}
	gen := NewGenerator(mock, 3, zerolog.Nop())

	var verdict model.Verdict
	err := gen.Structured(context.Background(), "m", "prompt", "fact_check", &verdict)
	if !errors.Is(err, ErrNonConforming) {
		t.Fatalf("Expected ErrNonConforming, got %v", err)
	}
	if mock.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", mock.calls)
	}
}

func TestGenerator_Structured_ProviderErrorNotRetried(t *testing.T) {
	boom := errors.New("quota exceeded")
	mock := &MockProvider{err: boom}
	gen := NewGenerator(mock, 3, zerolog.Nop())

	var verdict model.Verdict
	err := gen.Structured(context.Background(), "m", "prompt", "fact_check", &verdict)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected provider error, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("Expected a single call, got %d", mock.calls)
	}
}

func TestGenerator_Structured_RequiresPointer(t *testing.T) {
	gen := NewGenerator(&MockProvider{}, 1, zerolog.Nop())
	if err := gen.Structured(context.Background(), "m", "p", "s", model.Verdict{}); err == nil {
		t.Error("Expected error for non-pointer target")
	}
}

func TestGenerator_Text_Streams(t *testing.T) {
	mock := &MockProvider{responses: []string{"hello"}}
	gen := NewGenerator(mock, 1, zerolog.Nop())

	var got string
	text, err := gen.Text(context.Background(), "m", "p", func(s string) error {
		got += s
		return nil
	})
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "hello" || got != "hello" {
		t.Errorf("Unexpected text %q / streamed %q", text, got)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", `{"queries":["a"]}`, false},
		{"fenced", "```json\n{\"queries\":[\"a\"]}\n```", false},
		{"prose", `Here you go: {"queries":["a"]} hope it helps`, false},
		{"no object", `["a","b"]`, true},
		{"broken", `{"queries":[`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Queries []string `json:"queries"`
			}
			err := decodeJSON(tt.input, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (len(out.Queries) != 1 || out.Queries[0] != "a") {
				t.Errorf("Unexpected decode result: %+v", out)
			}
		})
	}
}

func TestSchemaInstruction(t *testing.T) {
	if _, err := schemaInstruction("sys", nil); err == nil {
		t.Error("Expected error for nil schema")
	}

	schema, _ := SchemaFor(model.Verdict{})
	got, err := schemaInstruction("", schema)
	if err != nil {
		t.Fatalf("schemaInstruction failed: %v", err)
	}
	if got == "" || got[0] != 'R' {
		t.Errorf("Expected instruction without system prefix, got %q", got)
	}
}
