package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// AuthorityClassifier assigns search results an authority tier from their host and path
type AuthorityClassifier struct {
	domainMap    map[string]model.AuthorityTier
	primary      []string
	secondary    []string
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// authorityTLDs mark institutional hosts when no configured rule matches
var authorityTLDs = []string{".gov", ".edu", ".mil", ".int", ".ac.uk", ".gov.uk", ".edu.au", ".gc.ca"}

// NewAuthorityClassifier creates a new authority classifier.
// Invalid path patterns are skipped.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	classifier := &AuthorityClassifier{
		domainMap: make(map[string]model.AuthorityTier, len(config.DomainMap)),
		primary:   lowerAll(config.PrimaryDomains),
		secondary: lowerAll(config.SecondaryDomains),
	}

	for host, tier := range config.DomainMap {
		classifier.domainMap[strings.ToLower(host)] = parseTierString(tier)
	}

	for _, p := range config.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		classifier.pathPatterns = append(classifier.pathPatterns, compiledPattern{
			pattern: re,
			tier:    parseTierString(p.Tier),
		})
	}

	return classifier
}

// Classify returns the tier of a URL. Unparsable URLs are tertiary.
// Precedence: explicit domain map, primary domains, secondary domains, path patterns, TLD heuristics.
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierTertiary
	}

	host := strings.ToLower(parsed.Hostname())

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return model.TierSecondary
	}

	for _, cp := range a.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}

	for _, tld := range authorityTLDs {
		if strings.HasSuffix(host, tld) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// Annotate sets the Authority field of every result in place
func (a *AuthorityClassifier) Annotate(results []model.SearchResult) {
	for i := range results {
		results[i].Authority = a.Classify(results[i].URL)
	}
}

// matchesDomain reports whether host equals one of domains or is a subdomain of it
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseTierString converts a tier string to AuthorityTier; unknown values are tertiary
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
