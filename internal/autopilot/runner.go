// Package autopilot drives one decision run end to end: gather observations,
// fetch vendor recommendations when the strategy needs them, plan, report,
// and (in execute mode) enqueue the resulting purchases.
package autopilot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/advisor"
	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/logfields"
	"github.com/rshade/commitpilot/internal/report"
)

// Runner wires the collaborators around the decision engine. Metering and
// the publisher are required; the advisor client may be nil when the target
// strategy never consults it.
type Runner struct {
	cfg       *engine.Config
	metering  metering
	advisor   advisor.Client
	publisher publisher
	logger    zerolog.Logger
	now       func() time.Time
}

type metering interface {
	Observations(ctx context.Context, category engine.Category) (engine.Observations, error)
}

type publisher interface {
	Publish(ctx context.Context, runID string, plans []engine.PurchasePlan) error
}

// Result captures everything one run produced.
type Result struct {
	RunID     string
	Decisions []engine.Decision
	Plans     []engine.PurchasePlan
	Report    *report.Report
	Calls     []advisor.Call
}

// NewRunner returns a runner over the given collaborators.
func NewRunner(cfg *engine.Config, src metering, adv advisor.Client, pub publisher, logger zerolog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		metering:  src,
		advisor:   adv,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one invocation. With execute false it is a pure preview: no
// purchase messages leave the process. Configuration is validated before any
// external call is made.
func (r *Runner) Run(ctx context.Context, execute bool) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := r.logger.With().Str(logfields.RunID, runID).Logger()
	start := r.now()
	logger.Info().
		Str(logfields.Operation, "run").
		Str(logfields.Strategy, r.cfg.TargetStrategyType+"/"+r.cfg.SplitStrategyType).
		Bool("execute", execute).
		Msg("run started")

	set, err := r.observe(ctx, logger)
	if err != nil {
		return nil, err
	}

	var recs engine.RecommendationMap
	collector := advisor.NewCallCollector()
	if r.cfg.TargetStrategyType == engine.TargetStrategyVendor {
		if r.advisor == nil {
			return nil, fmt.Errorf("target strategy %s requires an advisor client", engine.TargetStrategyVendor)
		}
		recs = advisor.FetchAll(ctx, r.advisor, r.cfg, collector, logger)
	}

	planner, err := engine.NewPlanner(r.cfg, recs, logger)
	if err != nil {
		return nil, err
	}
	decisions, err := planner.Decide(set)
	if err != nil {
		return nil, err
	}
	plans := engine.Plans(decisions)

	result := &Result{
		RunID:     runID,
		Decisions: decisions,
		Plans:     plans,
		Report:    report.Build(runID, r.cfg, decisions, r.now().UTC()),
		Calls:     collector.Calls(),
	}

	if execute && len(plans) > 0 {
		if err := r.publisher.Publish(ctx, runID, plans); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str(logfields.Operation, "run").
		Int("plan_count", len(plans)).
		Int64(logfields.DurationMs, time.Since(start).Milliseconds()).
		Msg("run finished")
	return result, nil
}

// observe gathers observations for every enabled category, in configuration
// order. A metering failure aborts the run: deciding on partial observation
// data could over-purchase.
func (r *Runner) observe(ctx context.Context, logger zerolog.Logger) (*engine.ObservationSet, error) {
	set := engine.NewObservationSet()
	for _, cc := range r.cfg.Categories {
		if !cc.Enabled {
			continue
		}
		obs, err := r.metering.Observations(ctx, cc.Name)
		if err != nil {
			return nil, fmt.Errorf("observe %s: %w", cc.Name, err)
		}
		set.Add(cc.Name, obs)
		logger.Debug().
			Str(logfields.Category, string(cc.Name)).
			Int("sample_count", obs.SampleCount).
			Float64("average_coverage", obs.Summary.AverageCoverage).
			Msg("observations collected")
	}
	return set, nil
}
