package engine

import (
	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/logfields"
)

// Valid target_strategy_type values.
const (
	TargetStrategyFixed   = "fixed"
	TargetStrategyVendor  = "aws"
	TargetStrategyDynamic = "dynamic"
)

// dynamicFallbackTargetPercent is used by the dynamic strategy when no
// positive cost samples exist to search over. Explicit documented fallback,
// not an error.
const dynamicFallbackTargetPercent = 90.0

// TargetStrategy resolves the coverage percentage a category should aim for.
// Implementations are pure functions of the observation set plus their own
// construction-time parameters; they share no mutable state.
type TargetStrategy interface {
	// Name identifies the strategy in plans and logs.
	Name() string

	// ResolveTarget returns the desired coverage percentage (0-100+) for
	// the category.
	ResolveTarget(set *ObservationSet, category Category) (float64, error)
}

// NewTargetStrategy builds the resolver selected by cfg. Unknown strategy
// types and a missing or invalid risk level for the dynamic strategy are
// configuration errors. recs is consulted only by the vendor strategy.
func NewTargetStrategy(cfg *Config, recs RecommendationMap, logger zerolog.Logger) (TargetStrategy, error) {
	switch cfg.TargetStrategyType {
	case TargetStrategyFixed:
		return &FixedTarget{Percent: cfg.CoverageTargetPercent}, nil
	case TargetStrategyVendor:
		return &VendorTarget{Recommendations: recs}, nil
	case TargetStrategyDynamic:
		level, ok := ParseRiskLevel(cfg.DynamicRiskLevel)
		if !ok {
			return nil, configErrorf("invalid dynamic_risk_level %q", cfg.DynamicRiskLevel)
		}
		return &DynamicTarget{
			Level:             level,
			SavingsPercentage: cfg.SavingsPercentage,
			logger:            logger,
		}, nil
	default:
		return nil, configErrorf("unknown target_strategy_type %q", cfg.TargetStrategyType)
	}
}

// FixedTarget always aims for the configured coverage percentage.
type FixedTarget struct {
	Percent float64
}

func (t *FixedTarget) Name() string { return TargetStrategyFixed }

func (t *FixedTarget) ResolveTarget(_ *ObservationSet, _ Category) (float64, error) {
	return t.Percent, nil
}

// VendorTarget aims for the coverage implied by the vendor's own purchase
// recommendation. The recommendation is an additional commitment to buy this
// cycle, so the implied target is the current coverage plus the coverage
// that commitment would add.
type VendorTarget struct {
	Recommendations RecommendationMap
}

func (t *VendorTarget) Name() string { return TargetStrategyVendor }

func (t *VendorTarget) ResolveTarget(set *ObservationSet, category Category) (float64, error) {
	rec, ok := t.Recommendations[category]
	if !ok {
		return 0, &MissingDataError{Category: category, Missing: "vendor purchase recommendation"}
	}
	obs, ok := set.Get(category)
	if !ok {
		return 0, &MissingDataError{Category: category, Missing: "observations"}
	}
	additional := CoverageFromCommitment(rec.HourlyCommitment, rec.EstimatedSavingsPercentage)
	return obs.Summary.AverageCoverage + percentOfHourlySpend(additional, obs.Summary.AverageHourlySpend), nil
}

// DynamicTarget derives the target from the observed cost distribution. All
// positive hourly cost samples across the observation set are pooled into
// one distribution, the optimal-coverage search picks the candidate for the
// configured risk posture, and the candidate is expressed as a percentage of
// the pool's mean hourly cost.
type DynamicTarget struct {
	Level             RiskLevel
	SavingsPercentage float64

	logger zerolog.Logger
}

func (t *DynamicTarget) Name() string { return TargetStrategyDynamic }

func (t *DynamicTarget) ResolveTarget(set *ObservationSet, category Category) (float64, error) {
	pool := pooledCosts(set)
	if len(pool) == 0 {
		t.logger.Warn().
			Str(logfields.Category, string(category)).
			Float64("fallback_target_percent", dynamicFallbackTargetPercent).
			Msg("no positive cost samples to search, using fallback coverage target")
		return dynamicFallbackTargetPercent, nil
	}

	candidates, err := OptimalCoverage(pool, t.SavingsPercentage)
	if err != nil {
		return 0, err
	}

	var mean float64
	for _, c := range pool {
		mean += c
	}
	mean /= float64(len(pool))

	return percentOfHourlySpend(candidates.ForLevel(t.Level), mean), nil
}

// pooledCosts gathers every positive hourly cost sample across all
// categories in the set into one distribution.
func pooledCosts(set *ObservationSet) []float64 {
	var pool []float64
	for _, category := range set.Categories() {
		obs, _ := set.Get(category)
		for _, sample := range obs.Samples {
			if sample.Spend > 0 {
				pool = append(pool, sample.Spend)
			}
		}
	}
	return pool
}
