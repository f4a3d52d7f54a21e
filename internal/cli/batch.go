package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check claims from a file in parallel",
	Long: `Batch fact-checks many claims concurrently:
- Read claims from the input file (one per line, # for comments)
- Skip blank lines and duplicate claims
- Run claims in parallel with a configurable worker count
- Write one JSON report per claim, numbered in input order

Example:
  claimcheck batch claims.txt
  claimcheck batch claims.txt --concurrency 4 --output-dir ./reports
  claimcheck batch claims.txt --timeout 30m --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of claims checked at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  claimcheck Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s (%d claims)\n", file, len(claims))
	fmt.Fprintf(stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "  LLM:          %s\n", cfg.LLM.Provider)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(stderr, "⚙️  Checking claims with %d workers...\n\n", concurrency)
	processor := worker.NewBatchProcessor(a.engine, concurrency)
	results := processor.ProcessClaims(ctx, claims)

	successCount, failureCount := 0, 0
	for i, result := range results {
		report := &model.Report{Claim: result.Claim, CheckedAt: time.Now().UTC(), Result: result.Result}
		if result.Error != nil {
			report.Error = result.Error.Error()
		}
		if result.Result != nil {
			report.Profile = a.profile(result.Result, nil)
		}

		path := filepath.Join(outputDir, reportFilename(i, result.Claim))
		if err := writeReport(report, path, cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Claim, err)
			failureCount++
			continue
		}

		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Claim, result.Error)
			continue
		}
		successCount++
		fmt.Fprintf(stderr, "✓ %s → %s (%.2f)\n", result.Claim, result.Result.Verdict.Label, result.Result.Verdict.Confidence)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	return nil
}

// reportFilename numbers reports in input order and appends a slug of the claim
func reportFilename(index int, claim model.Claim) string {
	return fmt.Sprintf("%03d-%s.json", index+1, sanitizeFilename(string(claim)))
}

// sanitizeFilename reduces s to a short lowercase slug safe for any filesystem
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 60 {
			break
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "claim"
	}
	return slug
}
