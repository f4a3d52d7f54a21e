package score

import (
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
)

func findSignal(signals []model.Signal, typ model.SignalType) (model.Signal, bool) {
	for _, s := range signals {
		if s.Type == typ {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestScorer_Calculate_MixedAuthority(t *testing.T) {
	scorer := NewScorer(nil)

	verdict := model.Verdict{
		Label:      model.LabelTrue,
		Confidence: 0.9,
		Rationale:  "r",
		Citations: []string{
			"https://www.cdc.gov/a",
			"https://www.cdc.gov/a",
			"https://en.wikipedia.org/wiki/B",
			"https://example.com/c",
		},
	}

	result := scorer.Calculate(verdict, nil)

	if result.Citations != 3 {
		t.Errorf("Expected 3 distinct citations, got %d", result.Citations)
	}

	// coverage 40 + authority (6/9 * 40 = 26) + unprobed accessibility 10
	if result.Index != 76 {
		t.Errorf("Expected index 76, got %d", result.Index)
	}

	authority, ok := findSignal(result.Signals, model.SignalAuthorityDistribution)
	if !ok {
		t.Fatal("Expected authority signal")
	}
	if authority.Data["primary"] != 1 || authority.Data["secondary"] != 1 || authority.Data["tertiary"] != 1 {
		t.Errorf("Unexpected distribution: %v", authority.Data)
	}

	if _, ok := findSignal(result.Signals, model.SignalConfidenceMismatch); ok {
		t.Error("Did not expect a confidence mismatch with a primary citation")
	}
}

func TestScorer_Calculate_NoCitations(t *testing.T) {
	scorer := NewScorer(nil)

	result := scorer.Calculate(model.Verdict{Label: model.LabelFalse, Confidence: 0.95, Rationale: "r"}, nil)

	if result.Index != 0 {
		t.Errorf("Expected index 0 after penalty, got %d", result.Index)
	}

	coverage, _ := findSignal(result.Signals, model.SignalCitationCoverage)
	if coverage.Severity != model.SeverityCritical {
		t.Errorf("Expected critical coverage, got %s", coverage.Severity)
	}

	if _, ok := findSignal(result.Signals, model.SignalConfidenceMismatch); !ok {
		t.Error("Expected confidence mismatch for an uncited confident verdict")
	}
}

func TestScorer_Calculate_ProbedLinks(t *testing.T) {
	scorer := NewScorer(nil)

	verdict := model.Verdict{
		Label:      model.LabelUnverified,
		Confidence: 0.5,
		Rationale:  "r",
		Citations:  []string{"https://blog.example.com/x"},
	}
	links := []model.LinkStatus{
		{URL: "https://blog.example.com/x", Accessible: true},
		{URL: "https://blog.example.com/y", Dead: true},
	}

	result := scorer.Calculate(verdict, links)

	// coverage 13 + authority 13 + accessibility 10
	if result.Index != 36 {
		t.Errorf("Expected index 36, got %d", result.Index)
	}

	access, _ := findSignal(result.Signals, model.SignalAccessibility)
	if access.Severity != model.SeverityWarning {
		t.Errorf("Expected warning accessibility at 50%%, got %s", access.Severity)
	}

	coverage, _ := findSignal(result.Signals, model.SignalCitationCoverage)
	if coverage.Severity != model.SeverityWarning {
		t.Errorf("Expected warning coverage for a single citation, got %s", coverage.Severity)
	}
}

func TestScorer_Calculate_TertiaryOnlyConfident(t *testing.T) {
	scorer := NewScorer(nil)

	verdict := model.Verdict{
		Label:      model.LabelTrue,
		Confidence: 0.85,
		Rationale:  "r",
		Citations:  []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"},
	}

	result := scorer.Calculate(verdict, []model.LinkStatus{})

	mismatch, ok := findSignal(result.Signals, model.SignalConfidenceMismatch)
	if !ok {
		t.Fatal("Expected confidence mismatch")
	}
	if mismatch.Data["citations"] != 3 {
		t.Errorf("Expected 3 citations in mismatch data, got %v", mismatch.Data["citations"])
	}

	// coverage 40 + authority 13 + no probed links 0 - penalty 10
	if result.Index != 43 {
		t.Errorf("Expected index 43, got %d", result.Index)
	}
}
