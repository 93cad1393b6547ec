package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observations(avgCoverage, avgHourlySpend float64, spends ...float64) Observations {
	samples := make([]Sample, len(spends))
	var total float64
	for i, spend := range spends {
		samples[i] = Sample{
			Timestamp: time.Date(2025, 6, 1, i, 0, 0, 0, time.UTC),
			Spend:     spend,
			Coverage:  avgCoverage,
		}
		total += spend
	}
	return Observations{
		Samples: samples,
		Summary: Summary{
			AverageCoverage:    avgCoverage,
			AverageHourlySpend: avgHourlySpend,
			TotalSpend:         total,
		},
		SampleCount: len(samples),
	}
}

func TestNewTargetStrategy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "fixed",
			cfg:      Config{TargetStrategyType: "fixed", CoverageTargetPercent: 85},
			wantName: "fixed",
		},
		{
			name:     "aws",
			cfg:      Config{TargetStrategyType: "aws"},
			wantName: "aws",
		},
		{
			name:     "dynamic",
			cfg:      Config{TargetStrategyType: "dynamic", DynamicRiskLevel: "balanced"},
			wantName: "dynamic",
		},
		{
			name:    "dynamic without risk level",
			cfg:     Config{TargetStrategyType: "dynamic"},
			wantErr: true,
		},
		{
			name:    "dynamic with invalid risk level",
			cfg:     Config{TargetStrategyType: "dynamic", DynamicRiskLevel: "yolo"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     Config{TargetStrategyType: "azure"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewTargetStrategy(&tt.cfg, nil, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, strategy.Name())
		})
	}
}

func TestFixedTarget(t *testing.T) {
	target := &FixedTarget{Percent: 85}
	got, err := target.ResolveTarget(NewObservationSet(), "compute")
	require.NoError(t, err)
	assert.InDelta(t, 85.0, got, 1e-9)
}

func TestVendorTarget(t *testing.T) {
	set := NewObservationSet()
	set.Add("compute", observations(50, 10, 9, 10, 11))

	target := &VendorTarget{Recommendations: RecommendationMap{
		"compute": {
			HourlyCommitment:           2.0,
			RecommendationID:           "rec-1",
			EstimatedSavingsPercentage: 20,
		},
	}}

	// $2/h commitment at 20% discount offsets $2.50/h of on-demand spend,
	// 25% of the $10/h average: target is current 50% plus 25%.
	got, err := target.ResolveTarget(set, "compute")
	require.NoError(t, err)
	assert.InDelta(t, 75.0, got, 1e-9)
}

func TestVendorTargetMissingRecommendation(t *testing.T) {
	set := NewObservationSet()
	set.Add("compute", observations(50, 10, 9, 10, 11))

	target := &VendorTarget{Recommendations: RecommendationMap{}}

	_, err := target.ResolveTarget(set, "compute")
	require.Error(t, err)

	var missing *MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, Category("compute"), missing.Category)
}

func TestDynamicTargetPoolsAcrossCategories(t *testing.T) {
	set := NewObservationSet()
	set.Add("compute", observations(40, 2, 1, 1, 0))
	set.Add("ml", observations(10, 4, 1, 1, 10))

	target := &DynamicTarget{Level: RiskMinHourly, SavingsPercentage: 30, logger: zerolog.Nop()}

	// Pool is the positive samples {1,1,1,1,10}: min hourly candidate 1,
	// mean 2.8, so the target is 1/2.8 of spend.
	got, err := target.ResolveTarget(set, "compute")
	require.NoError(t, err)
	assert.InDelta(t, 100.0/2.8, got, 1e-9)
}

func TestDynamicTargetEmptyPoolFallsBack(t *testing.T) {
	set := NewObservationSet()
	set.Add("compute", observations(40, 0, 0, 0, 0))

	target := &DynamicTarget{Level: RiskBalanced, SavingsPercentage: 30, logger: zerolog.Nop()}

	got, err := target.ResolveTarget(set, "compute")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, got, 1e-9)
}

func TestPooledCostsSkipsNonPositiveSamples(t *testing.T) {
	set := NewObservationSet()
	set.Add("compute", observations(40, 1, 0, -1, 2, 3))

	assert.Equal(t, []float64{2, 3}, pooledCosts(set))
}
