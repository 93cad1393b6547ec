// Package metering retrieves historical spend and coverage observations
// from the billing API and materializes them as engine observation
// snapshots. The engine itself never performs this I/O.
package metering

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/logfields"
)

const (
	dateLayout  = "2006-01-02"
	hoursPerDay = 24
	defaultDays = 30
)

// Source retrieves recent observations for a category.
type Source interface {
	Observations(ctx context.Context, category engine.Category) (engine.Observations, error)
}

// CoverageAPI is the slice of the Cost Explorer client used here.
type CoverageAPI interface {
	GetSavingsPlansCoverage(
		ctx context.Context,
		params *costexplorer.GetSavingsPlansCoverageInput,
		optFns ...func(*costexplorer.Options),
	) (*costexplorer.GetSavingsPlansCoverageOutput, error)
}

// categoryServices maps capacity categories onto the billing service names
// whose coverage they measure.
var categoryServices = map[engine.Category][]string{
	"compute": {
		"Amazon Elastic Compute Cloud - Compute",
		"AWS Lambda",
		"AWS Fargate",
	},
	"ec2": {"Amazon Elastic Compute Cloud - Compute"},
	"ml":  {"Amazon SageMaker"},
}

// CostExplorer implements Source against the Cost Explorer savings plans
// coverage API. Daily coverage buckets are normalized to hourly spend
// samples so downstream consumers work in a single unit.
type CostExplorer struct {
	api          CoverageAPI
	lookbackDays int
	now          func() time.Time
	logger       zerolog.Logger
}

// NewCostExplorer returns a CostExplorer source looking back lookbackDays
// days (defaulting to 30 when not positive).
func NewCostExplorer(api CoverageAPI, lookbackDays int, logger zerolog.Logger) *CostExplorer {
	if lookbackDays <= 0 {
		lookbackDays = defaultDays
	}
	return &CostExplorer{
		api:          api,
		lookbackDays: lookbackDays,
		now:          time.Now,
		logger:       logger,
	}
}

// Observations fetches the coverage time series for the category and folds
// it into an immutable snapshot.
func (s *CostExplorer) Observations(ctx context.Context, category engine.Category) (engine.Observations, error) {
	end := s.now().UTC().Truncate(hoursPerDay * time.Hour)
	start := end.AddDate(0, 0, -s.lookbackDays)

	input := &costexplorer.GetSavingsPlansCoverageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format(dateLayout)),
			End:   aws.String(end.Format(dateLayout)),
		},
		Granularity: types.GranularityDaily,
		Filter:      serviceFilter(category),
	}

	var samples []engine.Sample
	var coverageSum, totalSpend float64
	for {
		out, err := s.api.GetSavingsPlansCoverage(ctx, input)
		if err != nil {
			return engine.Observations{}, fmt.Errorf("get savings plans coverage: %w", err)
		}
		for _, item := range out.SavingsPlansCoverages {
			sample, err := toSample(item)
			if err != nil {
				return engine.Observations{}, err
			}
			samples = append(samples, sample)
			coverageSum += sample.Coverage
			totalSpend += sample.Spend
		}
		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		input.NextToken = out.NextToken
	}

	obs := engine.Observations{
		Samples:     samples,
		SampleCount: len(samples),
	}
	if len(samples) > 0 {
		obs.Summary = engine.Summary{
			AverageCoverage:    coverageSum / float64(len(samples)),
			AverageHourlySpend: totalSpend / float64(len(samples)),
			TotalSpend:         totalSpend * hoursPerDay,
		}
	}

	s.logger.Debug().
		Str(logfields.Category, string(category)).
		Int("sample_count", obs.SampleCount).
		Float64("average_coverage", obs.Summary.AverageCoverage).
		Float64("average_hourly_spend", obs.Summary.AverageHourlySpend).
		Msg("observations retrieved")
	return obs, nil
}

// toSample converts one daily coverage bucket into an hourly-normalized
// sample.
func toSample(item types.SavingsPlansCoverage) (engine.Sample, error) {
	sample := engine.Sample{}

	if item.TimePeriod != nil && item.TimePeriod.Start != nil {
		ts, err := time.Parse(dateLayout, *item.TimePeriod.Start)
		if err != nil {
			return engine.Sample{}, fmt.Errorf("parse coverage period: %w", err)
		}
		sample.Timestamp = ts
	}
	if item.Coverage == nil {
		return sample, nil
	}

	var err error
	sample.Coverage, err = parseAmount(item.Coverage.CoveragePercentage)
	if err != nil {
		return engine.Sample{}, fmt.Errorf("parse coverage percentage: %w", err)
	}
	daily, err := parseAmount(item.Coverage.TotalCost)
	if err != nil {
		return engine.Sample{}, fmt.Errorf("parse total cost: %w", err)
	}
	sample.Spend = daily / hoursPerDay
	return sample, nil
}

// serviceFilter limits coverage data to the category's services. Unknown
// categories get no filter and see account-wide coverage.
func serviceFilter(category engine.Category) *types.Expression {
	services, ok := categoryServices[category]
	if !ok {
		return nil
	}
	return &types.Expression{
		Dimensions: &types.DimensionValues{
			Key:    types.DimensionService,
			Values: services,
		},
	}
}

// parseAmount parses the string-typed numeric fields the coverage API
// returns. A nil field parses as 0.
func parseAmount(s *string) (float64, error) {
	if s == nil || *s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(*s, 64)
}
