// Package engine implements the commitment purchase decision engine: unit
// conversions between commitment, coverage, and discount rate; target and
// split resolution strategies; the optimal-coverage search; and the purchase
// plan synthesizer that ties them together.
//
// The engine is a pure computation library. It performs no I/O apart from
// logging and derives every decision from the configuration and observation
// snapshot passed into a single invocation.
package engine

import "time"

// Category identifies a class of purchasable capacity (for example
// "compute", "ec2", "ml"). Categories are evaluated independently.
type Category string

// Sample is a single observed spend data point, normalized to hourly
// on-demand-equivalent spend.
type Sample struct {
	Timestamp time.Time
	Spend     float64 // hourly on-demand-equivalent spend, USD
	Coverage  float64 // percentage of spend offset by commitment
}

// Summary aggregates one category's observation window.
type Summary struct {
	AverageCoverage    float64
	AverageHourlySpend float64
	TotalSpend         float64
}

// Observations is an immutable snapshot of recent spend and coverage for one
// category. The engine never mutates it.
type Observations struct {
	Samples     []Sample
	Summary     Summary
	SampleCount int
}

// ObservationSet holds per-category observations in insertion order. The
// order determines the order of decisions and plans, so runs over the same
// input are reproducible.
type ObservationSet struct {
	order []Category
	data  map[Category]Observations
}

// NewObservationSet returns an empty observation set.
func NewObservationSet() *ObservationSet {
	return &ObservationSet{data: make(map[Category]Observations)}
}

// Add records observations for a category. Re-adding a category replaces its
// observations without changing its position.
func (s *ObservationSet) Add(category Category, obs Observations) {
	if _, ok := s.data[category]; !ok {
		s.order = append(s.order, category)
	}
	s.data[category] = obs
}

// Get returns the observations for a category.
func (s *ObservationSet) Get(category Category) (Observations, bool) {
	obs, ok := s.data[category]
	return obs, ok
}

// Categories returns the categories in insertion order.
func (s *ObservationSet) Categories() []Category {
	out := make([]Category, len(s.order))
	copy(out, s.order)
	return out
}

// Recommendation is a vendor-supplied purchase recommendation for one
// category. HourlyCommitment is the additional commitment the vendor
// recommends purchasing this cycle.
type Recommendation struct {
	HourlyCommitment           float64
	RecommendationID           string
	EstimatedSavingsPercentage float64
}

// RecommendationMap holds vendor recommendations keyed by category.
type RecommendationMap map[Category]Recommendation

// PurchasePlan is one concrete purchase for one category, handed to the
// queuing collaborator for execution or to the reporting collaborator for
// preview. Plans are created fresh each invocation and never persisted here.
type PurchasePlan struct {
	Category         Category `json:"category"`
	HourlyCommitment float64  `json:"hourly_commitment"`
	PaymentOption    string   `json:"payment_option"`
	Term             string   `json:"term"`
	Strategy         string   `json:"strategy_name"`
}

// Decision records the outcome for one category in one invocation. Plan is
// nil when the category was skipped; SkipReason then says why.
type Decision struct {
	Category        Category
	Enabled         bool
	CurrentCoverage float64
	TargetCoverage  float64
	StepPercent     float64
	Plan            *PurchasePlan
	SkipReason      string
}

// Plans extracts the emitted purchase plans from a decision list, preserving
// category order.
func Plans(decisions []Decision) []PurchasePlan {
	var plans []PurchasePlan
	for _, d := range decisions {
		if d.Plan != nil {
			plans = append(plans, *d.Plan)
		}
	}
	return plans
}
