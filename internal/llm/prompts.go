package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// BuildQueriesPrompt asks for 2-5 search queries that can verify or refute the claim
func BuildQueriesPrompt(claim model.Claim) string {
	return fmt.Sprintf(`You are an expert search strategist. Generate %d-%d highly optimized search queries to fact-check this claim:

CLAIM: "%s"

## Instructions
1.  Analyze the claim to identify the key entities, concepts, and verifiable facts.
2.  Generate a list of %d to %d concise and specific search queries depending upon the complexity of the claim.
3.  The queries should be designed to find independent, authoritative sources to either support or refute the claim.
4.  Focus on factual verification, not opinion.
5.  Output ONLY the list of search queries in the required format.

### Examples
Claim: "Coffee causes cancer"
Output: ["coffee cancer research studies", "WHO coffee carcinogen classification", "coffee health effects 2025"]
`, model.MinQueries, model.MaxQueries, claim, model.MinQueries, model.MaxQueries)
}

// BuildFactCheckPrompt asks for a verdict grounded only in the formatted search results
func BuildFactCheckPrompt(claim model.Claim, searchResults string) string {
	return fmt.Sprintf(`You are a professional fact-checker. Analyze this claim against the search results and provide a verdict.

CLAIM: "%s"

## SEARCH RESULTS
<search_results>
%s

</search_results>

---

## INSTRUCTIONS

1.  Carefully read the claim and all provided search results.
2.  Evaluate the evidence to determine the claim's validity.
3.  Provide a clear verdict: %s.
    - "True": The claim is well-supported by multiple authoritative sources.
    - "False": The claim is contradicted by multiple authoritative sources.
    - "Misleading": The claim is partially true but presented deceptively or out of context.
    - "Unverified": There is not enough evidence in the provided sources to confirm or deny the claim.
4.  Assign a confidence score between 0.0 and 1.0.
5.  Write a concise rationale for your verdict, directly referencing the evidence.
6.  Provide a list of URLs as citations from the search results that support your rationale. You MUST only use URLs from the provided search results.
7.  Output your findings in the required format.
`, claim, searchResults, quotedLabels())
}

// BuildPostPrompt asks for a short shareable post summarizing the verdict
func BuildPostPrompt(claim model.Claim, verdict model.Verdict) string {
	return fmt.Sprintf(`Transform this fact-check into an engaging, shareable social media post.

CLAIM: "%s"
VERDICT: %s (Score: %.2f out of 1.0)
RATIONALE: %s
CITATIONS: %s

## INSTRUCTIONS

Create a viral-worthy post that:
- Starts with attention-grabbing line
- Includes 1-2 key facts that are memorable
- Uses conversational, accessible language
- Ends with relevant hashtags
- Builds trust through transparency
- Avoid sounding robotic

## REQUIREMENTS:
- Maximum 100 words
- Use emojis strategically (not excessively)
- Make it shareable - people should want to repost this
- Avoid jargon or technical terms

NOTE: Only return the post, no other text, explanation, or formatting.
`, claim, verdict.Label, verdict.Confidence, verdict.Rationale, joinCitations(verdict.Citations))
}

func quotedLabels() string {
	quoted := make([]string, len(model.Labels))
	for i, l := range model.Labels {
		quoted[i] = fmt.Sprintf("%q", string(l))
	}
	return strings.Join(quoted, ", ")
}

func joinCitations(urls []string) string {
	if len(urls) == 0 {
		return "(none)"
	}
	return strings.Join(urls, ", ")
}
