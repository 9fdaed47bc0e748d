package enrich

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/pkg/wikipedia"
)

const acmeArticleHTML = `<html><body>
<table class="infobox">
<tbody>
<tr><th>Founded</th><td>1975; 50 years ago</td></tr>
<tr><th>Headquarters</th><td>Springfield, Illinois, U.S.</td></tr>
<tr><th>Industry</th><td>Manufacturing</td></tr>
<tr><th>Website</th><td><a rel="mw:ExtLink" href="https://www.acme.com">www.acme.com</a></td></tr>
</tbody>
</table>
<p>Acme Corp is an American manufacturing company.</p>
</body></html>`

func acmeWiki() *fakeWiki {
	return &fakeWiki{
		searchFn: func(string) ([]wikipedia.SearchResult, error) {
			return []wikipedia.SearchResult{
				{Title: "Acme Corp", PageID: 42, Snippet: "American manufacturing company"},
			}, nil
		},
		summaryFn: func(title string) (*wikipedia.PageSummary, error) {
			s := &wikipedia.PageSummary{
				Title:     title,
				Extract:   "Acme Corp is an American manufacturing company.",
				Thumbnail: wikipedia.Image{Source: "https://upload.wikimedia.org/acme-thumb.png"},
			}
			s.ContentURLs.Desktop.Page = "https://en.wikipedia.org/wiki/Acme_Corp"
			return s, nil
		},
		htmlFn: func(string) (string, error) {
			return acmeArticleHTML, nil
		},
	}
}

func newTestEnricher(wiki wikipedia.Client) *Enricher {
	return New(wiki, match.DefaultRules(), Options{})
}

func TestEnrich_FillsMissingFields(t *testing.T) {
	t.Parallel()

	company := model.Company{
		ID:   1,
		Name: "Acme Corp",
		Existing: model.ExtractedFields{
			model.FieldDescription: "A company we already know about.",
		},
	}

	result := newTestEnricher(acmeWiki()).Enrich(context.Background(), company)

	require.True(t, result.Found)
	require.NotNil(t, result.Match)
	assert.Equal(t, "Acme Corp", result.Match.Title)
	assert.Empty(t, result.Error)

	assert.Equal(t, 1975, result.Fields.Int(model.FieldYearFounded))
	assert.Equal(t, "Springfield, Illinois, U.S.", result.Fields.String(model.FieldHeadquarters))
	assert.Equal(t, "Manufacturing", result.Fields.String(model.FieldIndustry))
	assert.Equal(t, "https://www.acme.com", result.Fields.String(model.FieldWebsite))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Acme_Corp", result.Fields.String(model.FieldWikipediaURL))
	// Description was already populated and must not be offered again.
	assert.False(t, result.Fields.Has(model.FieldDescription))
}

func TestEnrich_FullyPopulatedRecordGetsNothing(t *testing.T) {
	t.Parallel()

	existing := model.ExtractedFields{}
	for _, key := range model.AllFields {
		existing[key] = "set"
	}
	company := model.Company{ID: 2, Name: "Acme Corp", Existing: existing}

	result := newTestEnricher(acmeWiki()).Enrich(context.Background(), company)
	require.True(t, result.Found)
	assert.Empty(t, result.Fields)
}

func TestEnrich_EmptyName(t *testing.T) {
	t.Parallel()

	result := newTestEnricher(acmeWiki()).Enrich(context.Background(), model.Company{ID: 3, Name: "   "})
	assert.False(t, result.Found)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.Error)
}

func TestEnrich_NoConfidentMatch(t *testing.T) {
	t.Parallel()

	wiki := &fakeWiki{
		searchFn: func(string) ([]wikipedia.SearchResult, error) { return nil, nil },
	}

	result := newTestEnricher(wiki).Enrich(context.Background(), model.Company{ID: 4, Name: "Acme Corp"})
	assert.False(t, result.Found)
	assert.Equal(t, ReasonNoMatch, result.Reason)
	assert.Empty(t, result.Error)
}

func TestEnrich_SummaryFailureIsRecorded(t *testing.T) {
	t.Parallel()

	wiki := acmeWiki()
	wiki.summaryFn = func(string) (*wikipedia.PageSummary, error) {
		return nil, eris.New("summary endpoint down")
	}

	result := newTestEnricher(wiki).Enrich(context.Background(), model.Company{ID: 5, Name: "Acme Corp"})
	assert.False(t, result.Found)
	assert.Contains(t, result.Error, "summary endpoint down")
}

func TestEnrich_ContentFailureDegradesToSummaryOnly(t *testing.T) {
	t.Parallel()

	wiki := acmeWiki()
	wiki.htmlFn = func(string) (string, error) {
		return "", eris.New("content endpoint down")
	}

	result := newTestEnricher(wiki).Enrich(context.Background(), model.Company{ID: 6, Name: "Acme Corp"})
	require.True(t, result.Found)
	assert.Empty(t, result.Error)

	// Summary-derived fields survive without the infobox.
	assert.NotEmpty(t, result.Fields.String(model.FieldDescription))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Acme_Corp", result.Fields.String(model.FieldWikipediaURL))
	assert.Equal(t, "https://upload.wikimedia.org/acme-thumb.png", result.Fields.String(model.FieldLogo))
	assert.False(t, result.Fields.Has(model.FieldHeadquarters))
}

func TestEnrichAll_Counts(t *testing.T) {
	t.Parallel()

	wiki := acmeWiki()
	wiki.searchFn = func(term string) ([]wikipedia.SearchResult, error) {
		if term == `"Acme Corp"` {
			return []wikipedia.SearchResult{
				{Title: "Acme Corp", PageID: 42, Snippet: "American manufacturing company"},
			}, nil
		}
		return nil, nil
	}

	companies := []model.Company{
		{ID: 1, Name: "Acme Corp"},
		{ID: 2, Name: "Nowhere Holdings"},
	}

	summary := newTestEnricher(wiki).EnrichAll(context.Background(), companies, 1)
	require.NotNil(t, summary)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 0, summary.Failed)

	// Results stay in input order regardless of scheduling.
	require.Len(t, summary.Results, 2)
	assert.Equal(t, int64(1), summary.Results[0].Company.ID)
	assert.Equal(t, int64(2), summary.Results[1].Company.ID)
}

func TestEnrichAll_FailureCounting(t *testing.T) {
	t.Parallel()

	wiki := &fakeWiki{
		searchFn: func(string) ([]wikipedia.SearchResult, error) {
			return nil, eris.New("search down")
		},
	}

	summary := newTestEnricher(wiki).EnrichAll(context.Background(), []model.Company{
		{ID: 1, Name: "Acme Corp"},
	}, 0)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Found)
	require.Len(t, summary.Results, 1)
	assert.NotEmpty(t, summary.Results[0].Error)
}

func TestEnrichAll_ConcurrentWorkers(t *testing.T) {
	t.Parallel()

	companies := make([]model.Company, 8)
	for i := range companies {
		companies[i] = model.Company{ID: int64(i + 1), Name: "Acme Corp"}
	}

	summary := newTestEnricher(acmeWiki()).EnrichAll(context.Background(), companies, 4)
	assert.Equal(t, 8, summary.Found)
	for i, r := range summary.Results {
		require.NotNil(t, r)
		assert.Equal(t, int64(i+1), r.Company.ID)
	}
}
