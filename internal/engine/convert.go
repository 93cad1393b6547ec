package engine

// Conversions between hourly commitment, covered on-demand-equivalent spend,
// and discount rate. Every call site that needs one of these relationships
// must go through these functions so the arithmetic stays consistent.

// CoverageFromCommitment returns the on-demand-equivalent spend offset by an
// hourly commitment purchased at the given discount:
//
//	coverage = commitment / (1 - savingsPercentage/100)
//
// A savingsPercentage at or above 100 would divide by zero or flip the sign,
// so the commitment is returned unchanged in that case. That is a documented
// edge case, not an error.
func CoverageFromCommitment(commitment, savingsPercentage float64) float64 {
	if savingsPercentage >= 100 {
		return commitment
	}
	return commitment / (1 - savingsPercentage/100)
}

// CommitmentFromCoverage is the inverse of CoverageFromCommitment:
//
//	commitment = coverage * (1 - savingsPercentage/100)
//
// The result never exceeds coverage for savingsPercentage in [0, 100).
func CommitmentFromCoverage(coverage, savingsPercentage float64) float64 {
	return coverage * (1 - savingsPercentage/100)
}

// SavingsPercentageFromUsage returns the realized discount rate given the
// on-demand cost of the usage and the commitment consumed covering it.
// Returns 0 when onDemandCost is not positive. The result can exceed 100
// only under invalid input data; that is documented, not guarded.
func SavingsPercentageFromUsage(onDemandCost, usedCommitment float64) float64 {
	if onDemandCost <= 0 {
		return 0
	}
	return (onDemandCost - usedCommitment) / onDemandCost * 100
}

// EffectiveSavingsRate is SavingsPercentageFromUsage computed against the
// total committed spend, including unused capacity, so it goes negative when
// over-committed. utilizationPercentage is accepted for interface symmetry
// and carried by callers for reporting context only; it does not enter the
// arithmetic.
func EffectiveSavingsRate(onDemandCost, totalCommitment, utilizationPercentage float64) float64 {
	_ = utilizationPercentage
	if onDemandCost <= 0 {
		return 0
	}
	return (onDemandCost - totalCommitment) / onDemandCost * 100
}

// percentOfHourlySpend converts an hourly coverage amount into a percentage
// of the average hourly spend. Returns 0 when the average spend is not
// positive.
func percentOfHourlySpend(amount, averageHourlySpend float64) float64 {
	if averageHourlySpend <= 0 {
		return 0
	}
	return amount / averageHourlySpend * 100
}
