package metering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoverageAPI struct {
	pages  []*costexplorer.GetSavingsPlansCoverageOutput
	inputs []*costexplorer.GetSavingsPlansCoverageInput
	err    error
}

func (f *fakeCoverageAPI) GetSavingsPlansCoverage(
	_ context.Context,
	params *costexplorer.GetSavingsPlansCoverageInput,
	_ ...func(*costexplorer.Options),
) (*costexplorer.GetSavingsPlansCoverageOutput, error) {
	snapshot := *params
	f.inputs = append(f.inputs, &snapshot)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[len(f.inputs)-1]
	return page, nil
}

func coverageItem(day, coverage, totalCost string) types.SavingsPlansCoverage {
	return types.SavingsPlansCoverage{
		TimePeriod: &types.DateInterval{Start: aws.String(day)},
		Coverage: &types.SavingsPlansCoverageData{
			CoveragePercentage: aws.String(coverage),
			TotalCost:          aws.String(totalCost),
		},
	}
}

func TestObservations(t *testing.T) {
	api := &fakeCoverageAPI{pages: []*costexplorer.GetSavingsPlansCoverageOutput{
		{
			SavingsPlansCoverages: []types.SavingsPlansCoverage{
				coverageItem("2025-06-01", "60", "240"),
			},
			NextToken: aws.String("page2"),
		},
		{
			SavingsPlansCoverages: []types.SavingsPlansCoverage{
				coverageItem("2025-06-02", "70", "480"),
			},
		},
	}}

	source := NewCostExplorer(api, 30, zerolog.Nop())
	source.now = func() time.Time {
		return time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC)
	}

	obs, err := source.Observations(context.Background(), "compute")
	require.NoError(t, err)

	require.Equal(t, 2, obs.SampleCount)
	// Daily totals of $240 and $480 normalize to $10/h and $20/h.
	assert.InDelta(t, 10.0, obs.Samples[0].Spend, 1e-9)
	assert.InDelta(t, 20.0, obs.Samples[1].Spend, 1e-9)
	assert.InDelta(t, 65.0, obs.Summary.AverageCoverage, 1e-9)
	assert.InDelta(t, 15.0, obs.Summary.AverageHourlySpend, 1e-9)
	assert.InDelta(t, 720.0, obs.Summary.TotalSpend, 1e-9)

	// Pagination follows NextToken.
	require.Len(t, api.inputs, 2)
	assert.Nil(t, api.inputs[0].NextToken)
	assert.Equal(t, "page2", *api.inputs[1].NextToken)

	// The request window covers the lookback at daily granularity.
	first := api.inputs[0]
	assert.Equal(t, "2025-06-01", *first.TimePeriod.Start)
	assert.Equal(t, "2025-07-01", *first.TimePeriod.End)
	assert.Equal(t, types.GranularityDaily, first.Granularity)
	require.NotNil(t, first.Filter)
	assert.Equal(t, types.DimensionService, first.Filter.Dimensions.Key)
	assert.Contains(t, first.Filter.Dimensions.Values, "AWS Lambda")
}

func TestObservationsEmptyWindow(t *testing.T) {
	api := &fakeCoverageAPI{pages: []*costexplorer.GetSavingsPlansCoverageOutput{{}}}

	source := NewCostExplorer(api, 0, zerolog.Nop())
	obs, err := source.Observations(context.Background(), "ml")
	require.NoError(t, err)

	assert.Zero(t, obs.SampleCount)
	assert.Zero(t, obs.Summary.AverageCoverage)
	assert.Zero(t, obs.Summary.AverageHourlySpend)
}

func TestObservationsAPIError(t *testing.T) {
	api := &fakeCoverageAPI{err: errors.New("access denied")}

	source := NewCostExplorer(api, 30, zerolog.Nop())
	_, err := source.Observations(context.Background(), "compute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestServiceFilterUnknownCategory(t *testing.T) {
	assert.Nil(t, serviceFilter("warehouse"))
	assert.NotNil(t, serviceFilter("ec2"))
}

func TestToSampleBadAmount(t *testing.T) {
	item := types.SavingsPlansCoverage{
		Coverage: &types.SavingsPlansCoverageData{
			CoveragePercentage: aws.String("NaN%"),
		},
	}
	_, err := toSample(item)
	assert.Error(t, err)
}
