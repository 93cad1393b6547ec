package engine

import (
	"errors"
	"sort"
)

const (
	// kneeEfficiencyFloor is the fraction of peak marginal discount
	// efficiency at which the coverage sweep considers the curve to have
	// flattened. Product-defined constant; not derived and not configurable.
	kneeEfficiencyFloor = 0.30

	// tooPrudentFactor scales the minimum observed hourly cost down for the
	// too_prudent posture, deliberately under-covering even the floor.
	tooPrudentFactor = 0.80
)

// RiskLevel selects one of the four coverage candidates produced by
// OptimalCoverage.
type RiskLevel string

const (
	RiskTooPrudent RiskLevel = "too_prudent"
	RiskMinHourly  RiskLevel = "min_hourly"
	RiskBalanced   RiskLevel = "balanced"
	RiskAggressive RiskLevel = "aggressive"
)

// ParseRiskLevel maps a configuration string onto a RiskLevel.
// Returns ("", false) for anything outside the four valid levels.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskTooPrudent, RiskMinHourly, RiskBalanced, RiskAggressive:
		return RiskLevel(s), true
	}
	return "", false
}

// CoverageCandidates holds the candidate hourly coverage amounts (dollar
// amounts, not percentages), one per risk posture. For any fixed
// distribution the values are non-decreasing from TooPrudent to Aggressive.
type CoverageCandidates struct {
	TooPrudent float64
	MinHourly  float64
	Balanced   float64
	Aggressive float64
}

// ForLevel returns the candidate for the given risk level.
func (c CoverageCandidates) ForLevel(level RiskLevel) float64 {
	switch level {
	case RiskTooPrudent:
		return c.TooPrudent
	case RiskMinHourly:
		return c.MinHourly
	case RiskBalanced:
		return c.Balanced
	case RiskAggressive:
		return c.Aggressive
	}
	return 0
}

var errEmptyDistribution = errors.New("empty cost distribution")

// OptimalCoverage computes the four candidate hourly coverage levels for a
// distribution of positive hourly cost samples and an assumed discount rate.
//
//   - MinHourly: the minimum observed hourly cost, the always-safe floor.
//   - TooPrudent: 80% of MinHourly.
//   - Balanced: the knee point of the sorted cost curve. The candidate level
//     is swept upward through the distinct sample values; at each step the
//     marginal gain in covered spend per unit increase in level is compared
//     to the peak marginal gain observed so far. The knee is the first level
//     where the ratio drops to kneeEfficiencyFloor or below. If no step ever
//     drops, the highest level is the knee.
//   - Aggressive: the swept level maximizing net savings, the discount
//     captured on covered spend minus the commitment price of unused
//     coverage at hours below the level. Ties prefer the smaller level.
//
// The distribution is sorted once and swept once, O(n log n) total; no
// re-sort per risk level. Aggressive is clamped to at least Balanced so the
// four candidates stay ordered by risk.
func OptimalCoverage(costs []float64, savingsPercentage float64) (CoverageCandidates, error) {
	if len(costs) == 0 {
		return CoverageCandidates{}, errEmptyDistribution
	}

	sorted := append([]float64(nil), costs...)
	sort.Float64s(sorted)
	n := len(sorted)
	minHourly := sorted[0]

	discount := savingsPercentage / 100

	var (
		balanced     float64
		kneeFound    bool
		peakGain     float64
		bestNet      float64
		bestLevel    float64
		haveBest     bool
		prevLevel    float64 // sweep starts from zero coverage
		prevCovered  float64
		belowCount   int     // samples strictly below the current level
		belowSpend   float64 // spend of samples strictly below the current level
	)

	for i := 0; i < n; {
		level := sorted[i]
		// advance over duplicates so each distinct value is one sweep step
		for i < n && sorted[i] == level {
			belowCount++
			belowSpend += sorted[i]
			i++
		}

		// covered spend at this level: samples at or below contribute
		// themselves, samples above contribute the level
		covered := belowSpend + level*float64(n-belowCount)
		// unused coverage at hours below the level
		waste := level*float64(belowCount) - belowSpend

		marginal := (covered - prevCovered) / (level - prevLevel)
		if marginal > peakGain {
			peakGain = marginal
		}
		if !kneeFound && marginal <= kneeEfficiencyFloor*peakGain {
			balanced = level
			kneeFound = true
		}

		net := discount*covered - CommitmentFromCoverage(waste, savingsPercentage)
		if !haveBest || net > bestNet {
			bestNet = net
			bestLevel = level
			haveBest = true
		}

		prevLevel = level
		prevCovered = covered
	}

	if !kneeFound {
		balanced = sorted[n-1]
	}

	aggressive := bestLevel
	if aggressive < balanced {
		aggressive = balanced
	}

	return CoverageCandidates{
		TooPrudent: tooPrudentFactor * minHourly,
		MinHourly:  minHourly,
		Balanced:   balanced,
		Aggressive: aggressive,
	}, nil
}
