package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/claimcheck/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	checkProviders bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fact-check API",
	Long: `Serve exposes the workflow over HTTP:
  POST /api/analyze-claim   {"claim": "..."} -> Server-Sent Events
  GET  /api/ws              WebSocket, send {"claim": "..."} and read events
  GET  /health              liveness
  GET  /metrics             Prometheus metrics (when telemetry.metrics is on)

Example:
  claimcheck serve
  claimcheck serve --addr :9000 --check-providers`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&checkProviders, "check-providers", false, "verify the LLM and search providers answer before serving")
	serveCmd.Flags().BoolVar(&strictCitations, "strict-citations", false, "fail when the verdict cites URLs outside the search results")
	serveCmd.Flags().BoolVar(&traceSpans, "trace", false, "print OpenTelemetry spans to stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("strict-citations") {
		cfg.Workflow.StrictCitations = strictCitations
	}
	if cmd.Flags().Changed("trace") {
		cfg.Telemetry.Trace = traceSpans
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if checkProviders {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := a.checkProviders(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("provider check: %w", err)
		}
		a.logger.Info().Str("llm", a.llm.Name()).Str("search", a.search.Name()).Msg("providers available")
	}

	a.logger.Info().
		Str("llm", cfg.LLM.Provider).
		Str("search", cfg.Search.Provider).
		Bool("metrics", cfg.Telemetry.Metrics).
		Msg("starting claimcheck API")

	return server.New(a.engine, cfg.Server, a.metrics, a.logger).ListenAndServe(ctx)
}
