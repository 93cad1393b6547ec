package engine

import "math"

// Valid split_strategy_type values.
const (
	SplitStrategyOneShot   = "one_shot"
	SplitStrategyLinear    = "linear"
	SplitStrategyDichotomy = "dichotomy"
)

// SplitStrategy resolves how large a step, as a percentage of spend to newly
// cover, to take this cycle toward the target. The step is non-negative and
// exactly 0 whenever the target does not exceed the current coverage.
type SplitStrategy interface {
	// Name identifies the strategy in plans and logs.
	Name() string

	// ResolveSplit returns this cycle's step percentage.
	ResolveSplit(currentCoverage, targetCoverage float64) float64
}

// NewSplitStrategy builds the resolver selected by cfg. Unknown strategy
// types are configuration errors.
func NewSplitStrategy(cfg *Config) (SplitStrategy, error) {
	switch cfg.SplitStrategyType {
	case SplitStrategyOneShot:
		return &OneShotSplit{}, nil
	case SplitStrategyLinear:
		step := cfg.LinearStepPercent
		if step <= 0 {
			step = cfg.MaxPurchasePercent
		}
		return &LinearSplit{StepPercent: step}, nil
	case SplitStrategyDichotomy:
		return &DichotomySplit{
			MaxPercent: cfg.MaxPurchasePercent,
			MinPercent: cfg.MinPurchasePercent,
		}, nil
	default:
		return nil, configErrorf("unknown split_strategy_type %q", cfg.SplitStrategyType)
	}
}

// OneShotSplit closes the entire gap in one step. Used with the vendor
// target strategy, where the recommendation already is this cycle's
// purchase.
type OneShotSplit struct{}

func (s *OneShotSplit) Name() string { return SplitStrategyOneShot }

func (s *OneShotSplit) ResolveSplit(currentCoverage, targetCoverage float64) float64 {
	return math.Max(0, targetCoverage-currentCoverage)
}

// LinearSplit closes the gap in fixed-size steps.
type LinearSplit struct {
	StepPercent float64
}

func (s *LinearSplit) Name() string { return SplitStrategyLinear }

func (s *LinearSplit) ResolveSplit(currentCoverage, targetCoverage float64) float64 {
	gap := targetCoverage - currentCoverage
	if gap <= 0 {
		return 0
	}
	return math.Min(gap, s.StepPercent)
}

// DichotomySplit starts at MaxPercent and halves until the step no longer
// overshoots the target, converging geometrically. MinPercent is the hard
// floor: any gap smaller than it still yields a MinPercent step, and the
// halving loop terminates there at the latest, so iteration is bounded by
// log2(MaxPercent/MinPercent).
type DichotomySplit struct {
	MaxPercent float64
	MinPercent float64
}

func (s *DichotomySplit) Name() string { return SplitStrategyDichotomy }

func (s *DichotomySplit) ResolveSplit(currentCoverage, targetCoverage float64) float64 {
	gap := targetCoverage - currentCoverage
	if gap <= 0 {
		return 0
	}
	// Always take the minimum viable step rather than nothing.
	if gap < s.MinPercent {
		return s.MinPercent
	}

	candidate := s.MaxPercent
	for currentCoverage+candidate > targetCoverage {
		candidate /= 2
		if candidate < s.MinPercent {
			return s.MinPercent
		}
	}
	return math.Round(candidate*10) / 10
}
