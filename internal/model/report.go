package model

import "time"

// Report is the persisted outcome of one fact-check, written by the check and batch commands
type Report struct {
	Claim     Claim          `json:"claim"`
	CheckedAt time.Time      `json:"checked_at"`
	Result    *FinalResult   `json:"result,omitempty"`
	Profile   *SourceProfile `json:"profile,omitempty"`
	Links     []LinkStatus   `json:"links,omitempty"` // citation reachability, when requested
	Error     string         `json:"error,omitempty"`
}

// SourceProfile grades the sources a verdict cites
type SourceProfile struct {
	Index     int      `json:"index"` // 0-100
	Citations int      `json:"citations"`
	Signals   []Signal `json:"signals"`
}

// SignalType identifies a diagnostic signal
type SignalType string

const (
	SignalCitationCoverage      SignalType = "citation_coverage"
	SignalAuthorityDistribution SignalType = "authority_distribution"
	SignalAccessibility         SignalType = "accessibility"
	SignalConfidenceMismatch    SignalType = "confidence_mismatch"
)

// Severity is the level of a signal
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Signal is one diagnostic finding about the cited sources
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}
