// Package enrich drives the per-company pipeline: resolve the company name to
// a Wikipedia article, fetch its content, extract fields, and merge them
// non-destructively into the stored record.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
	"github.com/sells-group/wikipedia-enrich/pkg/wikipedia"
)

// Searcher resolves a company name to its best article candidate.
type Searcher struct {
	wiki   wikipedia.Client
	scorer *match.Scorer

	limit      int
	pause      time.Duration
	exhaustive bool
}

// NewSearcher creates a Searcher. limit caps raw hits per query; pause is the
// wait between unsuccessful term variants. When exhaustive is set, all
// variants are queried and the union is scored for a global best instead of
// stopping at the first confident hit.
func NewSearcher(wiki wikipedia.Client, scorer *match.Scorer, limit int, pause time.Duration, exhaustive bool) *Searcher {
	if limit <= 0 {
		limit = 15
	}
	return &Searcher{wiki: wiki, scorer: scorer, limit: limit, pause: pause, exhaustive: exhaustive}
}

// searchTerms builds the ordered variant list: the quoted literal name for
// exact phrase bias, the stripped core name, then name-plus-descriptor
// combinations. More specific terms come first; later terms are a controlled
// fallback, not extra evidence to combine.
func searchTerms(name normalize.Name) []string {
	terms := []string{`"` + name.Original + `"`}
	if name.HasCore() {
		terms = append(terms, name.Core)
	}
	for _, descriptor := range []string{"company", "corporation", "organization", "association"} {
		terms = append(terms, name.Original+" "+descriptor)
	}
	return terms
}

// Resolve tries each search term in priority order and returns the first
// confident match, or nil when every variant comes up empty. A nil result
// with a nil error is the normal "no confident match" outcome.
func (s *Searcher) Resolve(ctx context.Context, name normalize.Name) (*model.ScoredCandidate, error) {
	log := zap.L().With(zap.String("company", name.Original))

	var pool []model.SearchCandidate
	seen := map[string]bool{}
	succeeded := 0
	var lastErr error

	terms := searchTerms(name)
	for i, term := range terms {
		hits, err := s.wiki.Search(ctx, term, s.limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn("search variant failed", zap.String("term", term), zap.Error(err))
			lastErr = err
			continue
		}

		succeeded++
		cands := toCandidates(hits)
		if s.exhaustive {
			for _, c := range cands {
				if !seen[c.Title] {
					seen[c.Title] = true
					pool = append(pool, c)
				}
			}
		} else if len(cands) > 0 {
			if best := s.scorer.Best(cands, name); best != nil {
				log.Debug("match found",
					zap.String("term", term),
					zap.String("title", best.Title),
					zap.String("confidence", string(best.Confidence)),
				)
				return best, nil
			}
		}

		if i < len(terms)-1 {
			if err := sleep(ctx, s.pause); err != nil {
				return nil, err
			}
		}
	}

	if s.exhaustive {
		if best := s.scorer.Best(pool, name); best != nil {
			return best, nil
		}
	}

	// Only report an error when every variant failed outright; partial
	// search failures with no match still mean "no match".
	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func toCandidates(hits []wikipedia.SearchResult) []model.SearchCandidate {
	cands := make([]model.SearchCandidate, len(hits))
	for i, h := range hits {
		cands[i] = model.SearchCandidate{Title: h.Title, PageID: h.PageID, Snippet: h.Snippet}
	}
	return cands
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
