package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() Config {
	return Config{
		TargetStrategyType:    TargetStrategyFixed,
		SplitStrategyType:     SplitStrategyDichotomy,
		CoverageTargetPercent: 90,
		SavingsPercentage:     30,
		MaxPurchasePercent:    50,
		MinPurchasePercent:    1,
		MinCommitmentPerPlan:  0.1,
		Categories: []CategoryConfig{
			{Name: "compute", Enabled: true},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown target strategy",
			mutate:  func(c *Config) { c.TargetStrategyType = "gcp" },
			wantErr: "target_strategy_type",
		},
		{
			name:    "unknown split strategy",
			mutate:  func(c *Config) { c.SplitStrategyType = "halving" },
			wantErr: "split_strategy_type",
		},
		{
			name: "aws target with non-one_shot split",
			mutate: func(c *Config) {
				c.TargetStrategyType = TargetStrategyVendor
				c.SplitStrategyType = SplitStrategyLinear
			},
			wantErr: "one_shot",
		},
		{
			name: "dynamic target without risk level",
			mutate: func(c *Config) {
				c.TargetStrategyType = TargetStrategyDynamic
			},
			wantErr: "dynamic_risk_level",
		},
		{
			name: "dynamic target with invalid risk level",
			mutate: func(c *Config) {
				c.TargetStrategyType = TargetStrategyDynamic
				c.DynamicRiskLevel = "bold"
			},
			wantErr: "dynamic_risk_level",
		},
		{
			name:    "negative savings percentage",
			mutate:  func(c *Config) { c.SavingsPercentage = -1 },
			wantErr: "savings_percentage",
		},
		{
			name:    "dichotomy without floor",
			mutate:  func(c *Config) { c.MinPurchasePercent = 0 },
			wantErr: "min_purchase_percent",
		},
		{
			name: "dichotomy with max below min",
			mutate: func(c *Config) {
				c.MaxPurchasePercent = 0.5
			},
			wantErr: "max_purchase_percent",
		},
		{
			name:    "no categories",
			mutate:  func(c *Config) { c.Categories = nil },
			wantErr: "category",
		},
		{
			name: "duplicate categories",
			mutate: func(c *Config) {
				c.Categories = append(c.Categories, CategoryConfig{Name: "compute"})
			},
			wantErr: "duplicate",
		},
		{
			name: "invalid term",
			mutate: func(c *Config) {
				c.Categories[0].Term = "5yr"
			},
			wantErr: "term",
		},
		{
			name: "invalid payment option",
			mutate: func(c *Config) {
				c.Categories[0].PaymentOption = "monthly"
			},
			wantErr: "payment_option",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigYAMLKeys(t *testing.T) {
	// The key names are a fixed contract with external collaborators.
	doc := `
target_strategy_type: dynamic
split_strategy_type: dichotomy
coverage_target_percent: 85
dynamic_risk_level: balanced
savings_percentage: 28
max_purchase_percent: 50
min_purchase_percent: 1
min_commitment_per_plan: 0.25
categories:
  - name: compute
    enabled: true
    term: 3yr
    payment_option: partial_upfront
  - name: ml
    enabled: false
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "dynamic", cfg.TargetStrategyType)
	assert.Equal(t, "dichotomy", cfg.SplitStrategyType)
	assert.Equal(t, "balanced", cfg.DynamicRiskLevel)
	assert.InDelta(t, 28.0, cfg.SavingsPercentage, 1e-9)
	assert.InDelta(t, 0.25, cfg.MinCommitmentPerPlan, 1e-9)

	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, Category("compute"), cfg.Categories[0].Name)
	assert.Equal(t, TermThreeYears, cfg.Categories[0].EffectiveTerm())
	assert.Equal(t, PaymentPartialUpfront, cfg.Categories[0].EffectivePaymentOption())
	assert.False(t, cfg.Categories[1].Enabled)
	assert.Equal(t, TermOneYear, cfg.Categories[1].EffectiveTerm())
	assert.Equal(t, PaymentNoUpfront, cfg.Categories[1].EffectivePaymentOption())
}

func TestCategoryDefaults(t *testing.T) {
	cc := CategoryConfig{Name: "compute"}
	assert.Equal(t, TermOneYear, cc.EffectiveTerm())
	assert.Equal(t, PaymentNoUpfront, cc.EffectivePaymentOption())
}
