package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/logfields"
)

// Skip reasons recorded on decisions. Skips are data-driven, logged at info
// level, and never raised as errors.
const (
	SkipDisabled     = "category disabled"
	SkipNoSamples    = "no observed samples"
	SkipNoGap        = "no coverage gap"
	SkipBelowMinimum = "commitment below minimum"
)

// Planner synthesizes purchase plans for one invocation. It is built from a
// validated configuration and holds the resolved target and split
// strategies; it carries no mutable state across invocations.
type Planner struct {
	cfg    *Config
	target TargetStrategy
	split  SplitStrategy
	logger zerolog.Logger
}

// NewPlanner validates the strategy configuration and constructs the
// resolvers. It fails with a ConfigurationError before any observation data
// is touched, so an invalid pairing (for example the aws target with a
// non-one_shot split) can never produce a partial purchase set.
func NewPlanner(cfg *Config, recs RecommendationMap, logger zerolog.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, err := NewTargetStrategy(cfg, recs, logger)
	if err != nil {
		return nil, err
	}
	split, err := NewSplitStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return &Planner{cfg: cfg, target: target, split: split, logger: logger}, nil
}

// StrategyName identifies the active target/split pairing, recorded on every
// plan for traceability.
func (p *Planner) StrategyName() string {
	return p.target.Name() + "/" + p.split.Name()
}

// Decide evaluates every configured category in order and returns one
// decision per category. A resolver error in any category aborts the whole
// invocation: no partial purchase sets under exceptional conditions.
func (p *Planner) Decide(set *ObservationSet) ([]Decision, error) {
	decisions := make([]Decision, 0, len(p.cfg.Categories))
	for _, cc := range p.cfg.Categories {
		d, err := p.decideCategory(set, cc)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cc.Name, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// Plan runs Decide and returns only the emitted purchase plans, in category
// order.
func (p *Planner) Plan(set *ObservationSet) ([]PurchasePlan, error) {
	decisions, err := p.Decide(set)
	if err != nil {
		return nil, err
	}
	return Plans(decisions), nil
}

func (p *Planner) decideCategory(set *ObservationSet, cc CategoryConfig) (Decision, error) {
	d := Decision{Category: cc.Name, Enabled: cc.Enabled}

	if !cc.Enabled {
		d.SkipReason = SkipDisabled
		p.skipLog(cc.Name, d.SkipReason)
		return d, nil
	}

	obs, ok := set.Get(cc.Name)
	if !ok || obs.SampleCount == 0 {
		// Insufficient data is a skip, not an error.
		d.SkipReason = SkipNoSamples
		p.skipLog(cc.Name, d.SkipReason)
		return d, nil
	}
	d.CurrentCoverage = obs.Summary.AverageCoverage

	target, err := p.target.ResolveTarget(set, cc.Name)
	if err != nil {
		return Decision{}, err
	}
	d.TargetCoverage = target

	step := p.split.ResolveSplit(d.CurrentCoverage, target)
	d.StepPercent = step
	if step <= 0 {
		d.SkipReason = SkipNoGap
		p.skipLog(cc.Name, d.SkipReason)
		return d, nil
	}

	commitment := obs.Summary.AverageHourlySpend * step / 100
	if commitment < p.cfg.MinCommitmentPerPlan {
		// Step too small to act on economically.
		d.SkipReason = SkipBelowMinimum
		p.logger.Info().
			Str(logfields.Category, string(cc.Name)).
			Str(logfields.SkipReason, d.SkipReason).
			Float64("hourly_commitment", commitment).
			Float64("min_commitment_per_plan", p.cfg.MinCommitmentPerPlan).
			Msg("category skipped")
		return d, nil
	}

	d.Plan = &PurchasePlan{
		Category:         cc.Name,
		HourlyCommitment: commitment,
		PaymentOption:    cc.EffectivePaymentOption(),
		Term:             cc.EffectiveTerm(),
		Strategy:         p.StrategyName(),
	}
	p.logger.Info().
		Str(logfields.Category, string(cc.Name)).
		Str(logfields.Strategy, d.Plan.Strategy).
		Float64("current_coverage", d.CurrentCoverage).
		Float64("target_coverage", d.TargetCoverage).
		Float64("step_percent", step).
		Float64("hourly_commitment", commitment).
		Msg("purchase plan synthesized")
	return d, nil
}

func (p *Planner) skipLog(category Category, reason string) {
	p.logger.Info().
		Str(logfields.Category, string(category)).
		Str(logfields.SkipReason, reason).
		Msg("category skipped")
}
