package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/model"
)

// ErrCitationLeak is returned in strict mode when a verdict cites a URL outside the evidence
var ErrCitationLeak = errors.New("citation leak")

// CitationChecker keeps verdict citations inside the evidence set
type CitationChecker struct {
	strict bool
}

// NewCitationChecker creates a checker. In strict mode foreign citations are an error,
// otherwise they are dropped.
func NewCitationChecker(strict bool) *CitationChecker {
	return &CitationChecker{strict: strict}
}

// Check returns the verdict with citations rewritten to their evidence URLs, in citation order,
// with duplicates collapsed. URLs are compared in canonical form. The second return value lists
// citations that were dropped.
func (c *CitationChecker) Check(verdict model.Verdict, evidence model.EvidenceSet) (model.Verdict, []string, error) {
	allowed := make(map[string]string, len(evidence))
	for _, u := range evidence.URLs() {
		key := extract.CanonicalURL(u)
		if key == "" {
			continue
		}
		if _, exists := allowed[key]; !exists {
			allowed[key] = u
		}
	}

	kept := make([]string, 0, len(verdict.Citations))
	var dropped []string
	seen := make(map[string]bool, len(verdict.Citations))

	for _, cited := range verdict.Citations {
		key := extract.CanonicalURL(cited)
		original, ok := allowed[key]
		if key == "" || !ok {
			dropped = append(dropped, cited)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, original)
	}

	if c.strict && len(dropped) > 0 {
		return verdict, dropped, fmt.Errorf("%w: %d URL(s) not in search results: %s",
			ErrCitationLeak, len(dropped), strings.Join(dropped, ", "))
	}

	verdict.Citations = kept
	return verdict, dropped, nil
}
