package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/pkg/wikipedia"
)

// Fetcher retrieves the summary and raw article content for a resolved title.
type Fetcher struct {
	wiki wikipedia.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(wiki wikipedia.Client) *Fetcher {
	return &Fetcher{wiki: wiki}
}

// Fetch gets the article data for title. The summary and content calls are
// independent: a content failure degrades to a summary-only ArticleData, a
// summary failure is fatal for the title.
func (f *Fetcher) Fetch(ctx context.Context, title string) (*model.ArticleData, error) {
	summary, err := f.wiki.Summary(ctx, title)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: fetch summary for %q", title)
	}

	art := &model.ArticleData{
		Summary: model.Summary{
			Title:        summary.Title,
			Description:  summary.Extract,
			ThumbnailURL: summary.BestImage(),
			CanonicalURL: summary.ContentURLs.Desktop.Page,
		},
	}

	raw, err := f.wiki.PageHTML(ctx, title)
	if err != nil {
		// Infobox fields will simply be absent.
		zap.L().Warn("article content fetch failed, continuing with summary only",
			zap.String("title", title),
			zap.Error(err),
		)
		return art, nil
	}
	art.RawHTML = raw
	return art, nil
}
