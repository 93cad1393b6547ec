// Package advisor retrieves the vendor's own purchase recommendations, one
// per enabled category, ahead of an engine invocation. The engine consumes
// only the materialized recommendation map; all I/O happens here.
package advisor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/logfields"
)

// Client retrieves a vendor purchase recommendation for one category.
type Client interface {
	Recommendation(ctx context.Context, category engine.Category, term, paymentOption string) (engine.Recommendation, error)
}

// RecommendationAPI is the slice of the Cost Explorer client used here.
type RecommendationAPI interface {
	GetSavingsPlansPurchaseRecommendation(
		ctx context.Context,
		params *costexplorer.GetSavingsPlansPurchaseRecommendationInput,
		optFns ...func(*costexplorer.Options),
	) (*costexplorer.GetSavingsPlansPurchaseRecommendationOutput, error)
}

// savingsPlansTypes maps capacity categories onto the savings plan families
// the advisory API understands.
var savingsPlansTypes = map[engine.Category]types.SupportedSavingsPlansType{
	"compute": types.SupportedSavingsPlansTypeComputeSp,
	"ec2":     types.SupportedSavingsPlansTypeEc2InstanceSp,
	"ml":      types.SupportedSavingsPlansTypeSagemakerSp,
}

var termsInYears = map[string]types.TermInYears{
	engine.TermOneYear:    types.TermInYearsOneYear,
	engine.TermThreeYears: types.TermInYearsThreeYears,
}

var paymentOptions = map[string]types.PaymentOption{
	engine.PaymentNoUpfront:      types.PaymentOptionNoUpfront,
	engine.PaymentPartialUpfront: types.PaymentOptionPartialUpfront,
	engine.PaymentAllUpfront:     types.PaymentOptionAllUpfront,
}

// CostExplorer implements Client against the AWS Cost Explorer savings plans
// purchase recommendation API.
type CostExplorer struct {
	api      RecommendationAPI
	lookback types.LookbackPeriodInDays
	logger   zerolog.Logger
}

// NewCostExplorer returns a CostExplorer advisor. lookbackDays is rounded to
// the nearest period the API supports (7, 30, or 60 days).
func NewCostExplorer(api RecommendationAPI, lookbackDays int, logger zerolog.Logger) *CostExplorer {
	lookback := types.LookbackPeriodInDaysThirtyDays
	switch {
	case lookbackDays <= 7:
		lookback = types.LookbackPeriodInDaysSevenDays
	case lookbackDays > 30:
		lookback = types.LookbackPeriodInDaysSixtyDays
	}
	return &CostExplorer{api: api, lookback: lookback, logger: logger}
}

// Recommendation fetches the recommended additional hourly commitment for
// the category.
func (c *CostExplorer) Recommendation(ctx context.Context, category engine.Category, term, paymentOption string) (engine.Recommendation, error) {
	spType, ok := savingsPlansTypes[category]
	if !ok {
		return engine.Recommendation{}, fmt.Errorf("no savings plan type for category %q", category)
	}
	termInYears, ok := termsInYears[term]
	if !ok {
		return engine.Recommendation{}, fmt.Errorf("unsupported term %q", term)
	}
	payment, ok := paymentOptions[paymentOption]
	if !ok {
		return engine.Recommendation{}, fmt.Errorf("unsupported payment option %q", paymentOption)
	}

	out, err := c.api.GetSavingsPlansPurchaseRecommendation(ctx, &costexplorer.GetSavingsPlansPurchaseRecommendationInput{
		SavingsPlansType:     spType,
		TermInYears:          termInYears,
		PaymentOption:        payment,
		LookbackPeriodInDays: c.lookback,
	})
	if err != nil {
		return engine.Recommendation{}, fmt.Errorf("get purchase recommendation: %w", err)
	}

	rec := engine.Recommendation{}
	if out.Metadata != nil && out.Metadata.RecommendationId != nil {
		rec.RecommendationID = *out.Metadata.RecommendationId
	}
	if out.SavingsPlansPurchaseRecommendation == nil ||
		out.SavingsPlansPurchaseRecommendation.SavingsPlansPurchaseRecommendationSummary == nil {
		return engine.Recommendation{}, fmt.Errorf("recommendation response for %s has no summary", category)
	}
	summary := out.SavingsPlansPurchaseRecommendation.SavingsPlansPurchaseRecommendationSummary

	rec.HourlyCommitment, err = parseAmount(summary.HourlyCommitmentToPurchase)
	if err != nil {
		return engine.Recommendation{}, fmt.Errorf("parse hourly commitment: %w", err)
	}
	rec.EstimatedSavingsPercentage, err = parseAmount(summary.EstimatedSavingsPercentage)
	if err != nil {
		return engine.Recommendation{}, fmt.Errorf("parse savings percentage: %w", err)
	}

	c.logger.Debug().
		Str(logfields.Category, string(category)).
		Str("recommendation_id", rec.RecommendationID).
		Float64("hourly_commitment", rec.HourlyCommitment).
		Float64("estimated_savings_percentage", rec.EstimatedSavingsPercentage).
		Msg("vendor recommendation retrieved")
	return rec, nil
}

// parseAmount parses the string-typed monetary fields the Cost Explorer API
// returns. A nil field parses as 0.
func parseAmount(s *string) (float64, error) {
	if s == nil || *s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(*s, 64)
}
