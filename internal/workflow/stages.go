package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/ppiankov/claimcheck/internal/validate"
	"github.com/rs/zerolog"
)

// ErrNoQueries is returned when query generation yields nothing usable
var ErrNoQueries = errors.New("no usable search queries")

// Stages are the units of work the engine schedules.
// Each takes a typed input and returns a typed output; only the engine writes State.
type Stages interface {
	GenerateQueries(ctx context.Context, in QueriesInput) (QueriesOutput, error)
	Search(ctx context.Context, in SearchInput) (SearchOutput, error)
	Aggregate(in AggregateInput) AggregateOutput
	Verify(ctx context.Context, in VerifyInput) (VerifyOutput, error)
	// Compose streams the post through onToken. An onToken error aborts generation.
	Compose(ctx context.Context, in ComposeInput, onToken func(string) error) (ComposeOutput, error)
}

// queryList is the structured output of query generation
type queryList struct {
	Queries []string `json:"queries" description:"Search queries that can verify or refute the claim" validate:"required,min=1"`
}

// DefaultStages implements Stages with a language model and a search provider
type DefaultStages struct {
	generator  *llm.Generator
	search     search.Provider
	authority  *validate.AuthorityClassifier
	citations  *validate.CitationChecker
	validate   *validator.Validate
	models     model.ModelsConfig
	depth      string
	maxResults int
	logger     zerolog.Logger
}

// NewStages creates the production stages from configuration
func NewStages(generator *llm.Generator, provider search.Provider, cfg *model.Config, logger zerolog.Logger) *DefaultStages {
	maxResults := cfg.Search.MaxResults
	if maxResults <= 0 {
		maxResults = model.DefaultConfig().Search.MaxResults
	}

	return &DefaultStages{
		generator:  generator,
		search:     provider,
		authority:  validate.NewAuthorityClassifier(&cfg.Authority),
		citations:  validate.NewCitationChecker(cfg.Workflow.StrictCitations),
		validate:   validator.New(),
		models:     cfg.Models,
		depth:      cfg.Search.Depth,
		maxResults: maxResults,
		logger:     logger.With().Str("component", "stages").Logger(),
	}
}

// GenerateQueries asks the model for search queries. Blank queries are dropped and at most
// model.MaxQueries are kept, in emission order.
func (s *DefaultStages) GenerateQueries(ctx context.Context, in QueriesInput) (QueriesOutput, error) {
	var out queryList
	prompt := llm.BuildQueriesPrompt(in.Claim)
	if err := s.generator.Structured(ctx, s.models.QueryGenerator, prompt, "search_queries", &out); err != nil {
		return QueriesOutput{}, fmt.Errorf("generate queries: %w", err)
	}

	queries := model.NormalizeQueries(out.Queries)
	if len(queries) == 0 {
		return QueriesOutput{}, ErrNoQueries
	}
	if len(out.Queries) > len(queries) {
		s.logger.Debug().Int("generated", len(out.Queries)).Int("kept", len(queries)).Msg("queries trimmed")
	}
	return QueriesOutput{Queries: queries}, nil
}

// Search runs one query, keeps the top results with a valid http(s) URL,
// reduces snippets to plain text and assigns authority tiers
func (s *DefaultStages) Search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	results, err := s.search.Search(ctx, search.Request{
		Query:      in.Query,
		Depth:      s.depth,
		MaxResults: s.maxResults,
	})
	if err != nil {
		return SearchOutput{}, fmt.Errorf("search %q: %w", in.Query, err)
	}

	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	out := SearchOutput{
		Query:   in.Query,
		Results: make([]model.SearchResult, 0, len(results)),
	}
	for _, r := range results {
		r.URL = strings.TrimSpace(r.URL)
		if err := s.validate.Struct(r); err != nil || !extract.HTTPURL(r.URL) {
			s.logger.Debug().Str("query", string(in.Query)).Str("url", r.URL).Msg("dropping result with invalid URL")
			out.Dropped++
			continue
		}
		r.Title = strings.TrimSpace(r.Title)
		r.Content = extract.PlainText(r.Content)
		r.Query = in.Query
		out.Results = append(out.Results, r)
	}

	s.authority.Annotate(out.Results)
	return out, nil
}

// Aggregate renders the evidence for the fact-check prompt
func (s *DefaultStages) Aggregate(in AggregateInput) AggregateOutput {
	return AggregateOutput{
		Text:  FormatEvidence(in.Evidence),
		Count: len(in.Evidence),
	}
}

// Verify asks the model for a verdict and keeps its citations inside the evidence
func (s *DefaultStages) Verify(ctx context.Context, in VerifyInput) (VerifyOutput, error) {
	var verdict model.Verdict
	prompt := llm.BuildFactCheckPrompt(in.Claim, in.Text)
	if err := s.generator.Structured(ctx, s.models.FactChecker, prompt, "fact_check", &verdict); err != nil {
		return VerifyOutput{}, fmt.Errorf("fact check: %w", err)
	}

	checked, dropped, err := s.citations.Check(verdict, in.Evidence)
	if err != nil {
		return VerifyOutput{}, err
	}
	if len(dropped) > 0 {
		s.logger.Warn().Strs("dropped", dropped).Msg("verdict cited URLs outside the search results")
	}

	return VerifyOutput{Verdict: checked, Dropped: dropped}, nil
}

// Compose streams the shareable post
func (s *DefaultStages) Compose(ctx context.Context, in ComposeInput, onToken func(string) error) (ComposeOutput, error) {
	prompt := llm.BuildPostPrompt(in.Claim, in.Verdict)
	post, err := s.generator.Text(ctx, s.models.PostWriter, prompt, onToken)
	if err != nil {
		return ComposeOutput{}, fmt.Errorf("write post: %w", err)
	}
	return ComposeOutput{Post: post}, nil
}

const evidenceSeparator = "\n\n---\n\n"

// FormatEvidence renders each result as a Title/URL/Content block, in order
func FormatEvidence(evidence model.EvidenceSet) string {
	blocks := make([]string, len(evidence))
	for i, r := range evidence {
		blocks[i] = fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", r.Title, r.URL, r.Content)
	}
	return strings.Join(blocks, evidenceSeparator)
}
