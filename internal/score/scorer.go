package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/validate"
)

// confidentVerdict is the confidence above which weak sourcing is flagged
const confidentVerdict = 0.8

// Scorer grades the citations behind a verdict
type Scorer struct {
	authority *validate.AuthorityClassifier
}

// NewScorer creates a new scorer. A nil classifier uses the default authority rules.
func NewScorer(authority *validate.AuthorityClassifier) *Scorer {
	if authority == nil {
		authority = validate.NewAuthorityClassifier(nil)
	}
	return &Scorer{authority: authority}
}

// Calculate builds the source profile for verdict.
// links may be nil when citations were not probed.
func (s *Scorer) Calculate(verdict model.Verdict, links []model.LinkStatus) model.SourceProfile {
	citations := uniqueURLs(verdict.Citations)
	var signals []model.Signal

	// 1. Citation coverage (0-40 points)
	coverageScore, coverageSignal := s.calculateCoverage(citations)
	signals = append(signals, coverageSignal)

	// 2. Authority distribution (0-40 points)
	tiers := make([]model.AuthorityTier, len(citations))
	for i, u := range citations {
		tiers[i] = s.authority.Classify(u)
	}
	authorityScore, authoritySignal := s.calculateAuthority(tiers)
	signals = append(signals, authoritySignal)

	// 3. Accessibility (0-20 points)
	accessScore, accessSignal := s.calculateAccessibility(links)
	signals = append(signals, accessSignal)

	total := coverageScore + authorityScore + accessScore

	// 4. Confidence mismatch (penalty)
	if mismatch, ok := s.detectConfidenceMismatch(verdict, tiers); ok {
		signals = append(signals, mismatch)
		total = max(total-10, 0)
	}

	return model.SourceProfile{
		Index:     total,
		Citations: len(citations),
		Signals:   signals,
	}
}

func (s *Scorer) calculateCoverage(citations []string) (int, model.Signal) {
	count := len(citations)
	if count == 0 {
		return 0, model.Signal{
			Type:        model.SignalCitationCoverage,
			Severity:    model.SeverityCritical,
			Description: "Verdict cites no sources",
			Data:        map[string]any{"citations": 0},
		}
	}

	score := int(math.Min(float64(count)/3*40, 40))

	severity := model.SeverityInfo
	if count < 2 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCitationCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d distinct cited sources", count),
		Data: map[string]any{
			"citations": count,
			"score":     score,
			"formula":   "min(citations / 3 * 40, 40)",
		},
	}
}

func (s *Scorer) calculateAuthority(tiers []model.AuthorityTier) (int, model.Signal) {
	if len(tiers) == 0 {
		return 0, model.Signal{
			Type:        model.SignalAuthorityDistribution,
			Severity:    model.SeverityWarning,
			Description: "No cited sources to classify",
			Data:        map[string]any{"total": 0},
		}
	}

	var primary, secondary, tertiary int
	for _, tier := range tiers {
		switch tier {
		case model.TierPrimary:
			primary++
		case model.TierSecondary:
			secondary++
		default:
			tertiary++
		}
	}

	total := len(tiers)
	weighted := float64(primary*3 + secondary*2 + tertiary)
	score := int(weighted / float64(total*3) * 40)

	severity := model.SeverityInfo
	if primary == 0 && secondary == 0 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:     model.SignalAuthorityDistribution,
		Severity: severity,
		Description: fmt.Sprintf("Authority distribution: %d primary, %d secondary, %d tertiary",
			primary, secondary, tertiary),
		Data: map[string]any{
			"primary":   primary,
			"secondary": secondary,
			"tertiary":  tertiary,
			"total":     total,
			"score":     score,
			"formula":   "(primary*3 + secondary*2 + tertiary*1) / (total*3) * 40",
		},
	}
}

// calculateAccessibility assumes a moderate score when links were not probed
func (s *Scorer) calculateAccessibility(links []model.LinkStatus) (int, model.Signal) {
	if links == nil {
		return 10, model.Signal{
			Type:        model.SignalAccessibility,
			Severity:    model.SeverityInfo,
			Description: "Citations not probed (assuming moderate)",
			Data:        map[string]any{"checked": 0, "score": 10},
		}
	}
	if len(links) == 0 {
		return 0, model.Signal{
			Type:        model.SignalAccessibility,
			Severity:    model.SeverityWarning,
			Description: "No citations to probe",
			Data:        map[string]any{"checked": 0},
		}
	}

	accessible := 0
	for _, l := range links {
		if l.Accessible {
			accessible++
		}
	}

	ratio := float64(accessible) / float64(len(links))
	score := int(ratio * 20)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalAccessibility,
		Severity:    severity,
		Description: fmt.Sprintf("Accessibility: %d/%d (%.0f%%)", accessible, len(links), ratio*100),
		Data: map[string]any{
			"accessible": accessible,
			"checked":    len(links),
			"ratio":      ratio,
			"score":      score,
			"formula":    "(accessible / checked) * 20",
		},
	}
}

// detectConfidenceMismatch flags confident verdicts that rest on no authoritative source
func (s *Scorer) detectConfidenceMismatch(verdict model.Verdict, tiers []model.AuthorityTier) (model.Signal, bool) {
	if verdict.Confidence < confidentVerdict {
		return model.Signal{}, false
	}
	for _, tier := range tiers {
		if tier == model.TierPrimary || tier == model.TierSecondary {
			return model.Signal{}, false
		}
	}

	return model.Signal{
		Type:     model.SignalConfidenceMismatch,
		Severity: model.SeverityWarning,
		Description: fmt.Sprintf("Confidence %.2f with no primary or secondary citation",
			verdict.Confidence),
		Data: map[string]any{
			"confidence": verdict.Confidence,
			"citations":  len(tiers),
			"penalty":    10,
		},
	}, true
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
