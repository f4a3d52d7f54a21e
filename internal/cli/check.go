package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/stream"
	"github.com/spf13/cobra"
)

var (
	outJSON         string
	checkTimeout    time.Duration
	verifyLinks     bool
	noCache         bool
	strictCitations bool
	traceSpans      bool
	httpProxy       string
	httpsProxy      string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Fact-check a single claim in the terminal",
	Long: `Check runs the full fact-check workflow for one claim:
- Generate 2-5 search queries
- Search the web for each query in parallel
- Ask the language model for a verdict citing the results
- Stream a short shareable post

Example:
  claimcheck check "Coffee causes cancer"
  claimcheck check "The Great Wall is visible from space" --json report.json
  claimcheck check "Coffee causes cancer" --verify-links --json -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path (- for stdout)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 3*time.Minute, "overall timeout")
	checkCmd.Flags().BoolVar(&verifyLinks, "verify-links", false, "check that cited URLs are reachable")
	addRunFlags(checkCmd)
}

// addRunFlags registers flags shared by commands that run the workflow
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search result cache")
	cmd.Flags().BoolVar(&strictCitations, "strict-citations", false, "fail when the verdict cites URLs outside the search results")
	cmd.Flags().BoolVar(&traceSpans, "trace", false, "print OpenTelemetry spans to stderr")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyRunFlags overlays command-line flags on the loaded configuration
func applyRunFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("strict-citations") {
		cfg.Workflow.StrictCitations = strictCitations
	}
	if flags.Changed("trace") {
		cfg.Telemetry.Trace = traceSpans
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	// The CLI has no /metrics endpoint to serve
	cfg.Telemetry.Metrics = false
}

func runCheck(cmd *cobra.Command, args []string) error {
	claim, err := model.NewClaim(strings.Join(args, " "))
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	// With --json - stdout is reserved for the report
	out := cmd.OutOrStdout()
	if outJSON == "-" {
		out = cmd.ErrOrStderr()
	}
	sink := newTerminalSink(out, cmd.ErrOrStderr())

	fmt.Fprintf(cmd.ErrOrStderr(), "Checking: %s\n\n", claim)
	if err := stream.Pump(a.engine.Run(ctx, claim), sink); err != nil {
		return err
	}

	report := &model.Report{Claim: claim, CheckedAt: time.Now().UTC(), Result: sink.final}
	if sink.err != "" {
		report.Error = sink.err
	} else if sink.final == nil {
		report.Error = fmt.Sprintf("run did not complete: %v", ctx.Err())
	}

	if report.Result != nil {
		printVerdict(out, report.Result)

		if verifyLinks && len(report.Result.Verdict.Citations) > 0 {
			report.Links = a.linkChecker().Check(ctx, report.Result.Verdict.Citations)
			printLinks(out, report.Links)
		}

		report.Profile = a.profile(report.Result, report.Links)
		printProfile(out, report.Profile)
	}

	if outJSON != "" {
		if err := writeReport(report, outJSON, cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if report.Error != "" {
		return fmt.Errorf("check failed: %s", report.Error)
	}
	return nil
}

// terminalSink renders stream records for a terminal:
// progress on errOut, post tokens on out as they arrive
type terminalSink struct {
	out    io.Writer
	errOut io.Writer
	final  *model.FinalResult
	err    string
	inPost bool
}

func newTerminalSink(out, errOut io.Writer) *terminalSink {
	return &terminalSink{out: out, errOut: errOut}
}

func (s *terminalSink) Send(rec stream.Record) error {
	switch rec.Event {
	case stream.KindProgress:
		_, err := fmt.Fprintf(s.errOut, "⚙️  %v\n", rec.Data)
		return err
	case stream.KindToken:
		if !s.inPost {
			s.inPost = true
			if _, err := fmt.Fprintln(s.out); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(s.out, rec.Data)
		return err
	case stream.KindFinalResult:
		if final, ok := rec.Data.(*model.FinalResult); ok {
			s.final = final
		}
	case stream.KindError:
		s.err = fmt.Sprint(rec.Data)
		_, err := fmt.Fprintf(s.errOut, "✗ %s\n", s.err)
		return err
	case stream.KindEnd:
		if s.inPost {
			_, err := fmt.Fprintln(s.out)
			return err
		}
	}
	return nil
}

func printVerdict(w io.Writer, result *model.FinalResult) {
	v := result.Verdict
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Verdict: %s (confidence %.2f)\n", v.Label, v.Confidence)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "\n%s\n", v.Rationale)
	if len(v.Citations) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, c := range v.Citations {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
	fmt.Fprintln(w)
}

func printLinks(w io.Writer, links []model.LinkStatus) {
	fmt.Fprintln(w, "Citation check:")
	for _, l := range links {
		mark := "✓"
		detail := fmt.Sprintf("%d", l.StatusCode)
		switch {
		case l.Disallowed:
			mark, detail = "-", "robots.txt disallows"
		case !l.Accessible:
			mark = "✗"
			if l.Error != "" {
				detail = l.Error
			}
		}
		fmt.Fprintf(w, "  %s %s (%s, %s)\n", mark, l.URL, detail, l.Authority)
	}
	fmt.Fprintln(w)
}

func printProfile(w io.Writer, p *model.SourceProfile) {
	fmt.Fprintf(w, "Source profile: %d/100 (%d citations)\n", p.Index, p.Citations)
	for _, sig := range p.Signals {
		mark := "•"
		switch sig.Severity {
		case model.SeverityWarning:
			mark = "⚠"
		case model.SeverityCritical:
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, sig.Description)
	}
	fmt.Fprintln(w)
}

// writeReport writes report as indented JSON to path, or to stdout for "-"
func writeReport(report *model.Report, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
