package enrich

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// Summary aggregates one batch run.
type Summary struct {
	RunID    string                    `json:"run_id"`
	Total    int                       `json:"total"`
	Found    int                       `json:"found"`
	NotFound int                       `json:"not_found"`
	Failed   int                       `json:"failed"`
	Results  []*model.EnrichmentResult `json:"results"`
}

// EnrichAll processes companies with up to workers in flight. workers <= 1
// gives the strictly sequential behavior; higher values pipeline independent
// companies while the shared client rate limiter still enforces one delay
// budget for the remote host. Per-company failures are recorded, never
// propagated; the batch always runs to completion unless ctx is canceled.
func (e *Enricher) EnrichAll(ctx context.Context, companies []model.Company, workers int) *Summary {
	if workers < 1 {
		workers = 1
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		Total:   len(companies),
		Results: make([]*model.EnrichmentResult, len(companies)),
	}
	log := zap.L().With(zap.String("run_id", summary.RunID))
	log.Info("starting enrichment batch",
		zap.Int("companies", len(companies)),
		zap.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, company := range companies {
		g.Go(func() error {
			summary.Results[i] = e.Enrich(gctx, company)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for i, r := range summary.Results {
		if r == nil {
			// Canceled before this slot was scheduled.
			summary.Results[i] = &model.EnrichmentResult{Company: companies[i], Error: context.Canceled.Error()}
			r = summary.Results[i]
		}
		switch {
		case r.Found:
			summary.Found++
		case r.Error != "":
			summary.Failed++
		default:
			summary.NotFound++
		}
	}

	log.Info("enrichment batch complete",
		zap.Int("found", summary.Found),
		zap.Int("not_found", summary.NotFound),
		zap.Int("failed", summary.Failed),
	)
	return summary
}
