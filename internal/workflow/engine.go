package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/telemetry"
	"github.com/ppiankov/claimcheck/internal/worker"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ppiankov/claimcheck/internal/workflow"

// Run outcomes, as recorded in metrics
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

// Config tunes an Engine. The zero value is usable.
type Config struct {
	// MaxParallelSearches bounds the fan-out. 0 means one worker per query.
	MaxParallelSearches int
	Metrics             *telemetry.Metrics
	Logger              zerolog.Logger
}

// Engine runs the fact-check graph:
// generate_search_queries -> web_search x N -> aggregate_results -> fact_checker -> post_writer
type Engine struct {
	stages      Stages
	maxParallel int
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewEngine creates an engine over stages
func NewEngine(stages Stages, cfg Config) *Engine {
	return &Engine{
		stages:      stages,
		maxParallel: cfg.MaxParallelSearches,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer(tracerName),
		logger:      cfg.Logger.With().Str("component", "workflow").Logger(),
	}
}

// Run starts a fresh run for claim and returns its event stream.
// The channel is closed after the terminal event, or as soon as ctx is cancelled.
// Events are not buffered: the run advances only as fast as the consumer reads.
func (e *Engine) Run(ctx context.Context, claim model.Claim) <-chan Event {
	runID := uuid.NewString()
	r := &run{
		engine: e,
		ctx:    ctx,
		events: make(chan Event),
		state:  newState(runID, claim),
		logger: e.logger.With().Str("run_id", runID).Logger(),
	}
	go r.execute()
	return r.events
}

// Check runs claim to completion and returns the final result.
// A terminal error event is returned as the error.
func (e *Engine) Check(ctx context.Context, claim model.Claim) (*model.FinalResult, error) {
	for ev := range e.Run(ctx, claim) {
		switch ev := ev.(type) {
		case Error:
			if ev.Terminal {
				return nil, ev.Err
			}
		case Completed:
			return ev.State.FinalResult()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrStreamDisconnect
}

// run is the state of one Engine.Run call
type run struct {
	engine *Engine
	ctx    context.Context
	events chan Event
	state  *State
	logger zerolog.Logger
}

func (r *run) execute() {
	defer close(r.events)

	ctx, span := r.engine.tracer.Start(r.ctx, "fact_check",
		trace.WithAttributes(
			attribute.String("run.id", r.state.RunID),
			attribute.String("claim", string(r.state.Claim)),
		))
	defer span.End()

	r.engine.metrics.RunStarted()
	r.logger.Info().Str("claim", string(r.state.Claim)).Msg("run started")

	err := r.process(ctx)

	status := statusCompleted
	switch {
	case ctx.Err() != nil:
		status = statusCancelled
		span.SetStatus(codes.Error, "cancelled")
		r.logger.Info().Msg("run cancelled")
	case err != nil:
		status = statusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn().Err(err).Str("kind", KindName(err)).Msg("run failed")
	default:
		r.logger.Info().
			Int("queries", len(r.state.Queries)).
			Int("evidence", len(r.state.Evidence)).
			Str("verdict", string(r.state.Verdict.Label)).
			Dur("elapsed", time.Since(r.state.StartedAt)).
			Msg("run completed")
	}
	r.engine.metrics.RunFinished(status, time.Since(r.state.StartedAt))
}

// process walks the graph. It returns the terminal error, if any.
func (r *run) process(ctx context.Context) error {
	stages := r.engine.stages

	// 1. Generate search queries
	var queries QueriesOutput
	err := r.sequential(ctx, StageGenerateQueries, ErrGeneration, func(ctx context.Context) (any, error) {
		out, err := stages.GenerateQueries(ctx, QueriesInput{Claim: r.state.Claim})
		if err == nil && len(out.Queries) == 0 {
			err = ErrNoQueries
		}
		queries = out
		return out, err
	})
	if err != nil {
		return err
	}
	r.state.Queries = queries.Queries

	// 2. Fan out one search per query, fan in all-or-nothing
	blocks, err := r.fanOut(ctx, queries.Queries)
	if err != nil {
		return err
	}
	r.state.SearchResults = blocks
	r.state.Evidence = model.Concat(blocks...)

	// 3. Aggregate evidence
	var aggregated AggregateOutput
	err = r.sequential(ctx, StageAggregate, ErrGeneration, func(context.Context) (any, error) {
		aggregated = stages.Aggregate(AggregateInput{Evidence: r.state.Evidence})
		return aggregated, nil
	})
	if err != nil {
		return err
	}
	r.state.FormattedEvidence = aggregated.Text
	r.state.EvidenceCount = aggregated.Count

	// 4. Fact check
	var verified VerifyOutput
	err = r.sequential(ctx, StageFactCheck, ErrGeneration, func(ctx context.Context) (any, error) {
		out, err := stages.Verify(ctx, VerifyInput{
			Claim:    r.state.Claim,
			Evidence: r.state.Evidence,
			Text:     r.state.FormattedEvidence,
		})
		verified = out
		return out, err
	})
	if err != nil {
		return err
	}
	r.state.Verdict = &verified.Verdict
	r.state.DroppedCitations = verified.Dropped
	r.engine.metrics.CitationsDropped(len(verified.Dropped))

	// 5. Write the post, streaming tokens
	var post strings.Builder
	err = r.sequential(ctx, StagePostWriter, ErrGeneration, func(ctx context.Context) (any, error) {
		onToken := func(text string) error {
			if text == "" {
				return nil
			}
			if !r.emit(Token{Stage: StagePostWriter, Text: text}) {
				return ErrStreamDisconnect
			}
			post.WriteString(text)
			r.engine.metrics.TokenStreamed()
			return nil
		}

		out, err := stages.Compose(ctx, ComposeInput{Claim: r.state.Claim, Verdict: verified.Verdict}, onToken)
		if err != nil {
			return out, err
		}
		// A non-streaming stage still reaches the client as one token
		if post.Len() == 0 && out.Post != "" {
			if err := onToken(out.Post); err != nil {
				return out, err
			}
		}
		out.Post = post.String()
		return out, nil
	})
	if err != nil {
		return err
	}
	r.state.Post = post.String()

	r.emit(Completed{State: r.state})
	return nil
}

// sequential runs one stage of the chain, emitting its start, completion or terminal error
func (r *run) sequential(ctx context.Context, stage Stage, kind error, fn func(context.Context) (any, error)) error {
	if !r.emit(StageStarted{Stage: stage, Task: NoTask}) {
		return ctx.Err()
	}

	ctx, span := r.engine.tracer.Start(ctx, string(stage))
	start := time.Now()
	output, err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if err != nil {
		stageErr := &StageError{Stage: stage, Task: NoTask, Kind: kind, Err: err}
		r.engine.metrics.StageFinished(string(stage), KindName(stageErr), elapsed)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.emit(Error{Stage: stage, Task: NoTask, Err: stageErr, Terminal: true})
		return stageErr
	}

	r.engine.metrics.StageFinished(string(stage), "", elapsed)
	r.logger.Debug().Str("stage", string(stage)).Dur("elapsed", elapsed).Msg("stage completed")

	if !r.emit(StageCompleted{Stage: stage, Task: NoTask, Output: output}) {
		return ctx.Err()
	}
	return nil
}

// fanOut runs one search task per query on an ordered pool. Completion events are
// released in dispatch order. Every task settles before the outcome is decided;
// any failure discards all evidence.
func (r *run) fanOut(ctx context.Context, queries []model.SearchQuery) ([][]model.SearchResult, error) {
	workers := r.engine.maxParallel
	if workers <= 0 || workers > len(queries) {
		workers = len(queries)
	}

	pool := worker.NewPool(ctx, workers)
	defer pool.Shutdown()

	for i, q := range queries {
		if !r.emit(StageStarted{Stage: StageWebSearch, Task: i}) {
			return nil, ctx.Err()
		}
		pool.Submit(&searchJob{run: r, task: i, query: q})
	}
	pool.Close()

	blocks := make([][]model.SearchResult, len(queries))
	var failures []error

	collector := worker.NewOrderedCollector()
	for c := range pool.Completions() {
		for _, done := range collector.Add(c) {
			res := done.Result.(*searchResult)
			if res.err != nil {
				failures = append(failures, res.err)
				if !r.emit(Error{Stage: StageWebSearch, Task: done.Index, Err: res.err}) {
					return nil, ctx.Err()
				}
				continue
			}

			blocks[done.Index] = res.output.Results
			r.engine.metrics.SearchResults(len(res.output.Results))
			if !r.emit(StageCompleted{Stage: StageWebSearch, Task: done.Index, Output: res.output}) {
				return nil, ctx.Err()
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collector.Released() != len(queries) {
		return nil, fmt.Errorf("%d of %d search tasks settled", collector.Released(), len(queries))
	}

	if len(failures) > 0 {
		mergeErr := &StageError{
			Stage: StageWebSearch,
			Task:  NoTask,
			Kind:  ErrMerge,
			Err:   fmt.Errorf("%d of %d searches failed: %w", len(failures), len(queries), errors.Join(failures...)),
		}
		r.emit(Error{Stage: StageWebSearch, Task: NoTask, Err: mergeErr, Terminal: true})
		return nil, mergeErr
	}
	return blocks, nil
}

// emit delivers ev unless the run context is done
func (r *run) emit(ev Event) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.events <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// searchJob is one fan-out task
type searchJob struct {
	run   *run
	task  int
	query model.SearchQuery
}

type searchResult struct {
	output SearchOutput
	err    error
}

func (r *searchResult) GetError() error {
	return r.err
}

func (j *searchJob) Execute(ctx context.Context) worker.Result {
	ctx, span := j.run.engine.tracer.Start(ctx, string(StageWebSearch),
		trace.WithAttributes(
			attribute.Int("task", j.task),
			attribute.String("query", string(j.query)),
		))
	defer span.End()

	start := time.Now()
	out, err := j.run.engine.stages.Search(ctx, SearchInput{Query: j.query})
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		j.run.engine.metrics.StageFinished(string(StageWebSearch), KindName(ErrSearch), elapsed)
		j.run.logger.Warn().Err(err).Int("task", j.task).Str("query", string(j.query)).Msg("search failed")
		return &searchResult{err: &StageError{Stage: StageWebSearch, Task: j.task, Kind: ErrSearch, Err: err}}
	}

	span.SetAttributes(attribute.Int("results", len(out.Results)))
	j.run.engine.metrics.StageFinished(string(StageWebSearch), "", elapsed)
	j.run.logger.Debug().Int("task", j.task).Int("results", len(out.Results)).Dur("elapsed", elapsed).Msg("search completed")
	return &searchResult{output: out}
}
