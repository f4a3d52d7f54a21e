package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/score"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/ppiankov/claimcheck/internal/telemetry"
	"github.com/ppiankov/claimcheck/internal/validate"
	"github.com/ppiankov/claimcheck/internal/worker"
	"github.com/ppiankov/claimcheck/internal/workflow"
	"github.com/rs/zerolog"
)

// app holds the components wired for one command invocation
type app struct {
	cfg      *model.Config
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	llm      llm.Provider
	search   search.Provider
	engine   *workflow.Engine
	shutdown func(context.Context) error
}

// newApp wires providers, stages and the engine from cfg
func newApp(cfg *model.Config) (*app, error) {
	logger := telemetry.NewLogger(cfg.Logging, os.Stderr)

	shutdown, err := telemetry.NewTracerProvider(cfg.Telemetry.Trace, Version, os.Stderr)
	if err != nil {
		return nil, err
	}
	metrics := telemetry.NewMetrics(cfg.Telemetry.Metrics)

	llmConfig := llm.ConfigFromModel(cfg.LLM)
	llmConfig.HTTPProxy = cfg.HTTP.HTTPProxy
	llmConfig.HTTPSProxy = cfg.HTTP.HTTPSProxy
	llmConfig.NoProxy = cfg.HTTP.NoProxy
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	searchConfig := search.ConfigFromModel(cfg.Search)
	searchConfig.HTTPProxy = cfg.HTTP.HTTPProxy
	searchConfig.HTTPSProxy = cfg.HTTP.HTTPSProxy
	searchConfig.NoProxy = cfg.HTTP.NoProxy
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	searcher, err := search.NewProvider(searchConfig, limiter)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}

	if cfg.Cache.Enabled {
		c := cache.New(
			time.Duration(cfg.Cache.MemoryTTLMinutes)*time.Minute,
			cfg.Cache.Dir,
			time.Duration(cfg.Cache.DiskTTLHours)*time.Hour,
		)
		searcher = search.NewCachedProvider(searcher, c, logger)
	}

	generator := llm.NewGenerator(provider, cfg.LLM.StructuredAttempts, logger)
	stages := workflow.NewStages(generator, searcher, cfg, logger)
	engine := workflow.NewEngine(stages, workflow.Config{
		MaxParallelSearches: cfg.Workflow.MaxParallelSearches,
		Metrics:             metrics,
		Logger:              logger,
	})

	logger.Debug().
		Str("llm", provider.Name()).
		Str("search", searcher.Name()).
		Bool("cache", cfg.Cache.Enabled).
		Msg("components ready")

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		llm:      provider,
		search:   searcher,
		engine:   engine,
		shutdown: shutdown,
	}, nil
}

// linkChecker builds a citation reachability checker from cfg
func (a *app) linkChecker() *validate.LinkChecker {
	return validate.NewLinkChecker(a.cfg.LinkCheck, &a.cfg.Authority,
		a.cfg.HTTP.HTTPProxy, a.cfg.HTTP.HTTPSProxy, a.cfg.HTTP.NoProxy)
}

// profile grades the citations behind result, using probed links when present
func (a *app) profile(result *model.FinalResult, links []model.LinkStatus) *model.SourceProfile {
	scorer := score.NewScorer(validate.NewAuthorityClassifier(&a.cfg.Authority))
	p := scorer.Calculate(result.Verdict, links)
	return &p
}

// checkProviders reports whether the language model and search provider answer
func (a *app) checkProviders(ctx context.Context) error {
	if !a.llm.IsAvailable(ctx) {
		return fmt.Errorf("llm provider %s is not available", a.llm.Name())
	}
	if checker, ok := a.search.(interface{ IsAvailable(context.Context) bool }); ok && !checker.IsAvailable(ctx) {
		return fmt.Errorf("search provider %s is not available", a.search.Name())
	}
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("trace shutdown failed")
	}
}
