package model

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyClaim is returned when a claim has no content after normalization
var ErrEmptyClaim = errors.New("claim is empty")

// Claim is the user-asserted statement being fact-checked.
// A Claim is immutable once a run starts.
type Claim string

// NewClaim normalizes raw input (Unicode NFC, collapsed whitespace) and rejects empty claims
func NewClaim(raw string) (Claim, error) {
	text := strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
	if text == "" {
		return "", ErrEmptyClaim
	}
	return Claim(text), nil
}

// String returns the claim text
func (c Claim) String() string {
	return string(c)
}

// SearchQuery is a web search query derived from a claim.
// Order is the emission order of the model.
type SearchQuery string

// MaxQueries is the upper bound on queries kept per claim
const MaxQueries = 5

// MinQueries is the number of queries the generator is asked to produce at minimum
const MinQueries = 2

// NormalizeQueries trims queries, drops blank ones and keeps at most MaxQueries,
// preserving emission order
func NormalizeQueries(raw []string) []SearchQuery {
	queries := make([]SearchQuery, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, SearchQuery(q))
		if len(queries) == MaxQueries {
			break
		}
	}
	return queries
}
