package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/extract"
	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
	"github.com/sells-group/wikipedia-enrich/pkg/wikipedia"
)

// ReasonNoMatch is the Reason recorded when no candidate clears the
// confidence floor. It is a normal outcome, not an error.
const ReasonNoMatch = "no confident match"

// Options tunes one Enricher.
type Options struct {
	// SearchLimit caps raw hits per search query. Default 15.
	SearchLimit int
	// Delay is the fixed pause between external calls for one company.
	Delay time.Duration
	// Exhaustive scores the union of all search variants instead of
	// stopping at the first confident hit.
	Exhaustive bool
}

// Enricher runs the full pipeline for one company at a time.
type Enricher struct {
	searcher *Searcher
	fetcher  *Fetcher
	text     *extract.TextExtractor
	merger   *Merger
	delay    time.Duration
}

// New wires an Enricher from a Wikipedia client and rule tables.
func New(wiki wikipedia.Client, rules match.Rules, opts Options) *Enricher {
	return &Enricher{
		searcher: NewSearcher(wiki, match.NewScorer(rules), opts.SearchLimit, opts.Delay, opts.Exhaustive),
		fetcher:  NewFetcher(wiki),
		text:     extract.NewTextExtractor(rules.WebsiteOverrides),
		merger:   NewMerger(rules),
		delay:    opts.Delay,
	}
}

// Enrich runs search, fetch, extraction and merge for one company. Every
// failure is captured in the result; the method itself never returns an
// error so one bad company cannot halt a batch.
func (e *Enricher) Enrich(ctx context.Context, company model.Company) *model.EnrichmentResult {
	log := zap.L().With(zap.Int64("company_id", company.ID), zap.String("company", company.Name))
	result := &model.EnrichmentResult{Company: company}

	name := normalize.Normalize(company.Name)
	if name.Original == "" {
		result.Reason = "empty company name"
		return result
	}

	best, err := e.searcher.Resolve(ctx, name)
	if err != nil {
		result.Error = err.Error()
		log.Warn("search failed", zap.Error(err))
		return result
	}
	if best == nil {
		result.Reason = ReasonNoMatch
		log.Info("no confident match")
		return result
	}
	result.Match = best

	if err := sleep(ctx, e.delay); err != nil {
		result.Error = err.Error()
		return result
	}

	article, err := e.fetcher.Fetch(ctx, best.Title)
	if err != nil {
		result.Error = err.Error()
		log.Warn("article fetch failed", zap.String("title", best.Title), zap.Error(err))
		return result
	}

	infobox := extract.ParseInfobox(article.RawHTML)
	e.fillFromSummary(infobox, article.Summary)

	text := e.text.Extract(article.Summary.Description, name, infobox, company.Existing)

	result.Found = true
	result.Fields = e.merger.Merge(infobox, text, company.Existing)
	log.Info("company enriched",
		zap.String("title", best.Title),
		zap.String("confidence", string(best.Confidence)),
		zap.Int("fields_added", len(result.Fields)),
	)
	return result
}

// fillFromSummary adds the summary-derived fields the infobox cannot supply,
// without overriding anything the infobox already extracted.
func (e *Enricher) fillFromSummary(fields model.ExtractedFields, summary model.Summary) {
	if !fields.Has(model.FieldDescription) {
		fields.Set(model.FieldDescription, summary.Description)
	}
	if !fields.Has(model.FieldWikipediaURL) {
		fields.Set(model.FieldWikipediaURL, summary.CanonicalURL)
	}
	if !fields.Has(model.FieldLogo) {
		fields.Set(model.FieldLogo, summary.ThumbnailURL)
	}
}
