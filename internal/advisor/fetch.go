package advisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/logfields"
)

// fetchConcurrency bounds the worker pool for per-category fetches.
const fetchConcurrency = 4

// FetchAll retrieves recommendations for every enabled category using a
// bounded worker pool. Failures are independent: a failed fetch is logged
// and its category is simply absent from the returned map, leaving the
// engine to decide later whether the absence is fatal for that category.
func FetchAll(ctx context.Context, client Client, cfg *engine.Config, collector *CallCollector, logger zerolog.Logger) engine.RecommendationMap {
	recs := make(engine.RecommendationMap)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(fetchConcurrency)

	for _, cc := range cfg.Categories {
		if !cc.Enabled {
			continue
		}
		cc := cc
		g.Go(func() error {
			start := time.Now()
			rec, err := client.Recommendation(ctx, cc.Name, cc.EffectiveTerm(), cc.EffectivePaymentOption())

			call := Call{
				Category:      cc.Name,
				Term:          cc.EffectiveTerm(),
				PaymentOption: cc.EffectivePaymentOption(),
				Duration:      time.Since(start),
				At:            start,
			}
			if err != nil {
				call.Err = err.Error()
			}
			collector.Record(call)

			if err != nil {
				logger.Warn().
					Str(logfields.Category, string(cc.Name)).
					Int64(logfields.DurationMs, time.Since(start).Milliseconds()).
					Err(err).
					Msg("recommendation fetch failed")
				return nil
			}

			mu.Lock()
			recs[cc.Name] = rec
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures are recorded per category.
	_ = g.Wait()
	return recs
}
