package model

// SearchResult is a single ranked snippet returned by the search provider
type SearchResult struct {
	Title     string        `json:"title"`
	URL       string        `json:"url" validate:"required,http_url"`
	Content   string        `json:"content"`             // May be empty, always present
	Query     SearchQuery   `json:"query,omitempty"`     // Query that produced this result
	Authority AuthorityTier `json:"authority,omitempty"` // Source authority classification
}

// EvidenceSet is the ordered evidence for one run.
// Blocks are concatenated in dispatch (query) order, never deduplicated.
type EvidenceSet []SearchResult

// Concat appends blocks in the given order. The total length is the sum of block lengths.
func Concat(blocks ...[]SearchResult) EvidenceSet {
	total := 0
	for _, b := range blocks {
		total += len(b)
	}

	set := make(EvidenceSet, 0, total)
	for _, b := range blocks {
		set = append(set, b...)
	}
	return set
}

// URLs returns the evidence URLs in order (duplicates kept)
func (e EvidenceSet) URLs() []string {
	urls := make([]string, len(e))
	for i, r := range e {
		urls[i] = r.URL
	}
	return urls
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, academic, standards bodies
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// LinkStatus is the reachability of a cited URL
type LinkStatus struct {
	URL         string        `json:"url"`
	Accessible  bool          `json:"accessible"`
	Dead        bool          `json:"dead,omitempty"`       // 404/410 or unreachable
	Disallowed  bool          `json:"disallowed,omitempty"` // robots.txt forbids fetching
	StatusCode  int           `json:"status_code,omitempty"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Authority   AuthorityTier `json:"authority"`
	Error       string        `json:"error,omitempty"`
}
