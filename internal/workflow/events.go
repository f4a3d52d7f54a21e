package workflow

import "github.com/ppiankov/claimcheck/internal/model"

// Stage names a node of the fact-check graph
type Stage string

const (
	StageGenerateQueries Stage = "generate_search_queries"
	StageWebSearch       Stage = "web_search"
	StageAggregate       Stage = "aggregate_results"
	StageFactCheck       Stage = "fact_checker"
	StagePostWriter      Stage = "post_writer"
)

// NoTask marks events of sequential stages
const NoTask = -1

// Event is one item of a run's event stream. The concrete types are
// StageStarted, StageCompleted, Token, Error and Completed.
type Event interface {
	event()
}

// StageStarted is emitted when a stage (or one fan-out task) begins
type StageStarted struct {
	Stage Stage
	Task  int
}

// StageCompleted carries the typed output of a finished stage:
// QueriesOutput, SearchOutput, AggregateOutput, VerifyOutput or ComposeOutput
type StageCompleted struct {
	Stage  Stage
	Task   int
	Output any
}

// Token is one chunk of the streamed post
type Token struct {
	Stage Stage
	Text  string
}

// Error reports a failure. Terminal errors are the last event of a run.
// Non-terminal errors precede the terminal one when fan-out tasks fail.
type Error struct {
	Stage    Stage
	Task     int
	Err      error
	Terminal bool
}

// Completed is the last event of a successful run
type Completed struct {
	State *State
}

func (StageStarted) event()   {}
func (StageCompleted) event() {}
func (Token) event()          {}
func (Error) event()          {}
func (Completed) event()      {}

// QueriesInput is the input of GenerateQueries
type QueriesInput struct {
	Claim model.Claim
}

// QueriesOutput holds the normalized queries in emission order
type QueriesOutput struct {
	Queries []model.SearchQuery
}

// SearchInput is the input of one fan-out task. A task sees only its query.
type SearchInput struct {
	Query model.SearchQuery
}

// SearchOutput holds one task's results, already truncated and filtered
type SearchOutput struct {
	Query   model.SearchQuery
	Results []model.SearchResult
	Dropped int // results discarded for an invalid URL
}

// AggregateInput is the merged evidence in dispatch order
type AggregateInput struct {
	Evidence model.EvidenceSet
}

// AggregateOutput is the evidence rendered for the fact-check prompt
type AggregateOutput struct {
	Text  string
	Count int
}

// VerifyInput is the input of the fact-check stage
type VerifyInput struct {
	Claim    model.Claim
	Evidence model.EvidenceSet
	Text     string
}

// VerifyOutput holds the checked verdict and the citations removed from it
type VerifyOutput struct {
	Verdict model.Verdict
	Dropped []string
}

// ComposeInput is the input of the post writer
type ComposeInput struct {
	Claim   model.Claim
	Verdict model.Verdict
}

// ComposeOutput holds the post. It equals the concatenation of the streamed tokens.
type ComposeOutput struct {
	Post string
}
