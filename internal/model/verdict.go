package model

// Label is the verdict classification
type Label string

const (
	LabelTrue       Label = "True"       // Well supported by multiple authoritative sources
	LabelFalse      Label = "False"      // Contradicted by multiple authoritative sources
	LabelMisleading Label = "Misleading" // Partially true, deceptive or out of context
	LabelUnverified Label = "Unverified" // Not enough evidence either way
)

// Labels lists every valid label in display order
var Labels = []Label{LabelTrue, LabelFalse, LabelMisleading, LabelUnverified}

// Valid reports whether l is one of the known labels
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// Verdict is the structured judgment on a claim.
// JSON names match the wire contract consumed by the web client.
type Verdict struct {
	Label      Label    `json:"verdict" description:"Verdict on the claim" enum:"True,False,Misleading,Unverified" validate:"required,oneof=True False Misleading Unverified"`
	Confidence float64  `json:"confidence_score" description:"Confidence from 0.0 to 1.0 representing the certainty of the verdict" validate:"gte=0,lte=1"`
	Rationale  string   `json:"rationale" description:"Short, neutral rationale based ONLY on the provided sources" validate:"required"`
	Citations  []string `json:"citations" description:"URLs from the search results that support the rationale" validate:"dive,required"`
}

// FinalResult is the compiled output delivered to the client at the end of a run
type FinalResult struct {
	Post    string  `json:"post"`
	Verdict Verdict `json:"verdict"`
}
