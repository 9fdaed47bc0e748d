package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sells-group/wikipedia-enrich/internal/enrich"
	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/resilience"
	"github.com/sells-group/wikipedia-enrich/internal/store"
	"github.com/sells-group/wikipedia-enrich/pkg/wikipedia"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

func loadRules() (match.Rules, error) {
	if cfg.Rules.Path == "" {
		return match.DefaultRules(), nil
	}
	return match.LoadRules(cfg.Rules.Path)
}

func newWikipediaClient() wikipedia.Client {
	w := cfg.Wikipedia
	opts := []wikipedia.Option{
		wikipedia.WithAPIBaseURL(w.APIBaseURL),
		wikipedia.WithRESTBaseURL(w.RESTBaseURL),
		wikipedia.WithDelay(w.Delay()),
		wikipedia.WithRetry(resilience.FromSettings(w.Retries, w.BackoffMs, w.MaxBackoffMs)),
		wikipedia.WithBreaker(resilience.NewBreaker(w.BreakerOpens, time.Duration(w.BreakerResetS)*time.Second)),
	}
	if w.TimeoutSecs > 0 {
		opts = append(opts, wikipedia.WithHTTPClient(&http.Client{
			Timeout: time.Duration(w.TimeoutSecs) * time.Second,
		}))
	}
	return wikipedia.NewClient(w.UserAgent, opts...)
}

func newEnricher() (*enrich.Enricher, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	return enrich.New(newWikipediaClient(), rules, enrich.Options{
		SearchLimit: cfg.Enrich.SearchLimit,
		Delay:       cfg.Enrich.Delay(),
		Exhaustive:  cfg.Enrich.Exhaustive,
	}), nil
}
