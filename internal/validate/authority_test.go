package validate

import (
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
)

func TestAuthorityClassifier_Classify(t *testing.T) {
	config := &model.AuthorityConfig{
		PrimaryDomains:   []string{"who.int", "ncbi.nlm.nih.gov", "doi.org"},
		SecondaryDomains: []string{"wikipedia.org", "Reuters.com"},
		DomainMap: map[string]string{
			"blog.who.int":      "tertiary",
			"factcheck.example": "secondary",
		},
		PathPatterns: []model.PathPattern{
			{Pattern: `^/(pubmed|pmc)/`, Tier: "primary"},
			{Pattern: `[invalid`, Tier: "primary"},
		},
	}

	classifier := NewAuthorityClassifier(config)

	tests := []struct {
		url      string
		expected model.AuthorityTier
		desc     string
	}{
		{"https://who.int/news-room/fact-sheets", model.TierPrimary, "primary exact match"},
		{"https://iarc.who.int/coffee", model.TierPrimary, "primary subdomain"},
		{"https://blog.who.int/post", model.TierTertiary, "domain map overrides primary suffix"},
		{"https://doi.org/10.1234/example", model.TierPrimary, "DOI resolver"},
		{"https://en.wikipedia.org/wiki/Coffee", model.TierSecondary, "secondary subdomain"},
		{"https://www.reuters.com/health", model.TierSecondary, "configured domains are case-insensitive"},
		{"https://factcheck.example/claims/1", model.TierSecondary, "explicit domain map"},
		{"https://mirror.example.org/pubmed/123", model.TierPrimary, "path pattern"},
		{"https://www.cancer.gov/about-cancer", model.TierPrimary, ".gov heuristic"},
		{"https://www.ox.ac.uk/research", model.TierPrimary, ".ac.uk heuristic"},
		{"https://WHO.INT:443/page", model.TierPrimary, "host case and port ignored"},
		{"https://coffeelovers.blog/cancer-myth", model.TierTertiary, "default tertiary"},
		{"https://notwho.int.example.com/x", model.TierTertiary, "suffix must be a domain boundary"},
		{"://bad", model.TierTertiary, "unparsable URL"},
		{"", model.TierTertiary, "empty URL"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if result := classifier.Classify(tt.url); result != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.url, result)
			}
		})
	}
}

func TestAuthorityClassifier_Annotate(t *testing.T) {
	classifier := NewAuthorityClassifier(nil)

	results := []model.SearchResult{
		{URL: "https://www.who.int/a"},
		{URL: "https://en.wikipedia.org/wiki/Coffee"},
		{URL: "https://random.example.com"},
	}
	classifier.Annotate(results)

	want := []model.AuthorityTier{model.TierPrimary, model.TierSecondary, model.TierTertiary}
	for i, r := range results {
		if r.Authority != want[i] {
			t.Errorf("result %d: expected %v, got %v", i, want[i], r.Authority)
		}
	}
}

func TestParseTierString(t *testing.T) {
	tests := []struct {
		input    string
		expected model.AuthorityTier
	}{
		{"primary", model.TierPrimary},
		{"PRIMARY", model.TierPrimary},
		{"1", model.TierPrimary},
		{"Secondary", model.TierSecondary},
		{"2", model.TierSecondary},
		{"tertiary", model.TierTertiary},
		{"3", model.TierTertiary},
		{"unknown", model.TierTertiary},
		{"", model.TierTertiary},
	}

	for _, tt := range tests {
		if result := parseTierString(tt.input); result != tt.expected {
			t.Errorf("Expected %v for %q, got %v", tt.expected, tt.input, result)
		}
	}
}
