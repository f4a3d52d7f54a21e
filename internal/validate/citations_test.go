package validate

import (
	"errors"
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var coffeeEvidence = model.EvidenceSet{
	{Title: "WHO", URL: "https://www.who.int/news/coffee", Content: "Group 3"},
	{Title: "NIH", URL: "https://www.nih.gov/coffee/", Content: "No link"},
	{Title: "WHO again", URL: "https://www.who.int/news/coffee", Content: "dup"},
}

func TestCitationChecker_FiltersForeignURLs(t *testing.T) {
	verdict := model.Verdict{
		Label:      model.LabelMisleading,
		Confidence: 0.6,
		Rationale:  "r",
		Citations: []string{
			"https://www.who.int/news/coffee",
			"https://hallucinated.example.com/study",
			"https://www.nih.gov/coffee",
		},
	}

	got, dropped, err := NewCitationChecker(false).Check(verdict, coffeeEvidence)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.who.int/news/coffee", "https://www.nih.gov/coffee/"}, got.Citations)
	assert.Equal(t, []string{"https://hallucinated.example.com/study"}, dropped)
	assert.Equal(t, verdict.Label, got.Label)
}

func TestCitationChecker_CollapsesDuplicates(t *testing.T) {
	verdict := model.Verdict{Citations: []string{
		"https://www.who.int/news/coffee",
		"https://WWW.WHO.INT/news/coffee#summary",
		"https://www.who.int/news/coffee",
	}}

	got, dropped, err := NewCitationChecker(true).Check(verdict, coffeeEvidence)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.who.int/news/coffee"}, got.Citations)
	assert.Empty(t, dropped)
}

func TestCitationChecker_StrictRejects(t *testing.T) {
	verdict := model.Verdict{Citations: []string{"https://www.who.int/news/coffee", "not a url"}}

	_, dropped, err := NewCitationChecker(true).Check(verdict, coffeeEvidence)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCitationLeak))
	assert.Equal(t, []string{"not a url"}, dropped)
}

func TestCitationChecker_EmptyCitationsNeverNil(t *testing.T) {
	got, _, err := NewCitationChecker(false).Check(model.Verdict{Citations: nil}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got.Citations)
	assert.Len(t, got.Citations, 0)

	got, dropped, err := NewCitationChecker(false).Check(model.Verdict{Citations: []string{"https://x.example"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Citations)
	assert.Len(t, dropped, 1)
}
