package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Checker fact-checks a single claim to completion
type Checker interface {
	Check(ctx context.Context, claim model.Claim) (*model.FinalResult, error)
}

// CheckJob represents a claim check job
type CheckJob struct {
	Claim   model.Claim
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	result, err := j.Checker.Check(ctx, j.Claim)
	return &CheckResult{
		Claim:  j.Claim,
		Result: result,
		Error:  err,
	}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Claim  model.Claim
	Result *model.FinalResult
	Error  error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks multiple claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessClaims checks claims concurrently and returns results in input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*CheckResult {
	if len(claims) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	for _, claim := range claims {
		pool.Submit(&CheckJob{
			Claim:   claim,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	// jobs rejected or dropped after cancellation have no result
	checkResults := make([]*CheckResult, len(claims))
	for i, claim := range claims {
		if i < len(results) && results[i] != nil {
			checkResults[i] = results[i].(*CheckResult)
			continue
		}
		checkResults[i] = &CheckResult{Claim: claim, Error: ctx.Err()}
	}

	return checkResults
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file (one per line).
// Blank lines and # comments are skipped, duplicates after normalization are dropped.
func ReadClaimsFromFile(filePath string) ([]model.Claim, error) {
	lines, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, err
	}

	var claims []model.Claim
	seen := make(map[model.Claim]bool)
	for _, line := range lines {
		claim, err := model.NewClaim(line)
		if err != nil {
			continue
		}
		if !seen[claim] {
			seen[claim] = true
			claims = append(claims, claim)
		}
	}
	return claims, nil
}

// ReadLinesFromFile reads non-empty, non-comment lines from a file
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
