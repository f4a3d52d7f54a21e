package workflow

import (
	"errors"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

var errIncompleteRun = errors.New("run has no verdict")

// State is the record threaded through one run.
// Each field is assigned by the engine from exactly one stage's output.
type State struct {
	RunID     string
	Claim     model.Claim
	StartedAt time.Time

	Queries           []model.SearchQuery    // generate_search_queries
	SearchResults     [][]model.SearchResult // web_search, one block per task in dispatch order
	Evidence          model.EvidenceSet      // fan-in
	FormattedEvidence string                 // aggregate_results
	EvidenceCount     int                    // aggregate_results
	Verdict           *model.Verdict         // fact_checker
	DroppedCitations  []string               // fact_checker
	Post              string                 // post_writer
}

func newState(runID string, claim model.Claim) *State {
	return &State{
		RunID:     runID,
		Claim:     claim,
		StartedAt: time.Now(),
	}
}

// FinalResult compiles the payload delivered to clients at the end of a run
func (s *State) FinalResult() (*model.FinalResult, error) {
	if s == nil || s.Verdict == nil {
		return nil, errIncompleteRun
	}
	return &model.FinalResult{
		Post:    s.Post,
		Verdict: *s.Verdict,
	}, nil
}
