package engine

// Configuration consumed at the engine boundary. The YAML keys are a fixed
// contract shared with every external collaborator; renaming one is a
// breaking interface change.

const (
	// TermOneYear and TermThreeYears are the accepted commitment terms.
	TermOneYear    = "1yr"
	TermThreeYears = "3yr"

	// Payment options for a purchase plan.
	PaymentNoUpfront      = "no_upfront"
	PaymentPartialUpfront = "partial_upfront"
	PaymentAllUpfront     = "all_upfront"
)

// Per-category defaults applied when not explicitly configured.
const (
	defaultTerm          = TermOneYear
	defaultPaymentOption = PaymentNoUpfront
)

// CategoryConfig holds per-category enablement and purchase settings.
type CategoryConfig struct {
	Name          Category `yaml:"name"`
	Enabled       bool     `yaml:"enabled"`
	Term          string   `yaml:"term"`
	PaymentOption string   `yaml:"payment_option"`
}

// EffectiveTerm returns the configured term, or the default when unset.
func (c CategoryConfig) EffectiveTerm() string {
	if c.Term == "" {
		return defaultTerm
	}
	return c.Term
}

// EffectivePaymentOption returns the configured payment option, or the
// default when unset.
func (c CategoryConfig) EffectivePaymentOption() string {
	if c.PaymentOption == "" {
		return defaultPaymentOption
	}
	return c.PaymentOption
}

// Config holds the validated, immutable engine settings for one invocation.
type Config struct {
	TargetStrategyType    string  `yaml:"target_strategy_type"`
	SplitStrategyType     string  `yaml:"split_strategy_type"`
	CoverageTargetPercent float64 `yaml:"coverage_target_percent"`
	DynamicRiskLevel      string  `yaml:"dynamic_risk_level"`
	SavingsPercentage     float64 `yaml:"savings_percentage"`
	MaxPurchasePercent    float64 `yaml:"max_purchase_percent"`
	MinPurchasePercent    float64 `yaml:"min_purchase_percent"`
	LinearStepPercent     float64 `yaml:"linear_step_percent"`
	MinCommitmentPerPlan  float64 `yaml:"min_commitment_per_plan"`

	Categories []CategoryConfig `yaml:"categories"`
}

// Validate checks the strategy selection and its required parameters.
// Violations are ConfigurationErrors: fatal, raised before any plan
// synthesis, never retried.
func (c *Config) Validate() error {
	switch c.TargetStrategyType {
	case TargetStrategyFixed, TargetStrategyVendor, TargetStrategyDynamic:
	default:
		return configErrorf("unknown target_strategy_type %q", c.TargetStrategyType)
	}

	switch c.SplitStrategyType {
	case SplitStrategyOneShot, SplitStrategyLinear, SplitStrategyDichotomy:
	default:
		return configErrorf("unknown split_strategy_type %q", c.SplitStrategyType)
	}

	// The vendor recommendation is taken wholesale, not incrementally split.
	if c.TargetStrategyType == TargetStrategyVendor && c.SplitStrategyType != SplitStrategyOneShot {
		return configErrorf("target_strategy_type %q requires split_strategy_type %q, got %q",
			TargetStrategyVendor, SplitStrategyOneShot, c.SplitStrategyType)
	}

	if c.TargetStrategyType == TargetStrategyDynamic {
		if c.DynamicRiskLevel == "" {
			return configErrorf("dynamic_risk_level is required when target_strategy_type is %q", TargetStrategyDynamic)
		}
		if _, ok := ParseRiskLevel(c.DynamicRiskLevel); !ok {
			return configErrorf("invalid dynamic_risk_level %q", c.DynamicRiskLevel)
		}
	}

	if c.SavingsPercentage < 0 {
		return configErrorf("savings_percentage must not be negative, got %v", c.SavingsPercentage)
	}
	if c.CoverageTargetPercent < 0 {
		return configErrorf("coverage_target_percent must not be negative, got %v", c.CoverageTargetPercent)
	}
	if c.MinCommitmentPerPlan < 0 {
		return configErrorf("min_commitment_per_plan must not be negative, got %v", c.MinCommitmentPerPlan)
	}

	switch c.SplitStrategyType {
	case SplitStrategyLinear:
		if c.LinearStepPercent <= 0 && c.MaxPurchasePercent <= 0 {
			return configErrorf("linear split requires linear_step_percent or max_purchase_percent to be positive")
		}
	case SplitStrategyDichotomy:
		// The floor is the hard termination condition for the halving loop.
		if c.MinPurchasePercent <= 0 {
			return configErrorf("dichotomy split requires a positive min_purchase_percent, got %v", c.MinPurchasePercent)
		}
		if c.MaxPurchasePercent < c.MinPurchasePercent {
			return configErrorf("max_purchase_percent %v is below min_purchase_percent %v",
				c.MaxPurchasePercent, c.MinPurchasePercent)
		}
	}

	if len(c.Categories) == 0 {
		return configErrorf("at least one category must be configured")
	}
	seen := make(map[Category]bool, len(c.Categories))
	for _, cc := range c.Categories {
		if cc.Name == "" {
			return configErrorf("category name must not be empty")
		}
		if seen[cc.Name] {
			return configErrorf("duplicate category %q", cc.Name)
		}
		seen[cc.Name] = true

		switch cc.EffectiveTerm() {
		case TermOneYear, TermThreeYears:
		default:
			return configErrorf("category %q: invalid term %q", cc.Name, cc.Term)
		}
		switch cc.EffectivePaymentOption() {
		case PaymentNoUpfront, PaymentPartialUpfront, PaymentAllUpfront:
		default:
			return configErrorf("category %q: invalid payment_option %q", cc.Name, cc.PaymentOption)
		}
	}

	return nil
}
