package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/wikipedia-enrich/internal/enrich"
	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/store"
)

func TestFormatSummary(t *testing.T) {
	s := &enrich.Summary{
		RunID: "11111111-2222-3333-4444-555555555555",
		Total: 3, Found: 1, NotFound: 1, Failed: 1,
		Results: []*model.EnrichmentResult{
			{
				Company: model.Company{Name: "Acme Corp"},
				Found:   true,
				Match: &model.ScoredCandidate{
					SearchCandidate: model.SearchCandidate{Title: "Acme Corp"},
					Confidence:      model.ConfidenceHigh,
				},
				Fields: model.ExtractedFields{model.FieldYearFounded: 1975},
			},
			{Company: model.Company{Name: "Nowhere Holdings"}, Reason: enrich.ReasonNoMatch},
			{Company: model.Company{Name: "Broken Co"}, Error: "search failed"},
		},
	}

	var b strings.Builder
	formatSummary(&b, s, false)
	out := b.String()

	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, enrich.ReasonNoMatch)
	assert.Contains(t, out, "error: search failed")
	assert.Contains(t, out, "3 companies, 1 enriched, 1 no match, 1 failed")
	assert.NotContains(t, out, "dry run")

	b.Reset()
	formatSummary(&b, s, true)
	assert.Contains(t, b.String(), "dry run, nothing written")
}

func TestFormatRuns(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	var b strings.Builder
	formatRuns(&b, []store.RunRecord{
		{
			ID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
			Total: 10, Found: 7, NotFound: 2, Failed: 1,
			StartedAt: start, FinishedAt: start.Add(90 * time.Second),
		},
	})
	out := b.String()

	assert.Contains(t, out, "aaaaaaaa")
	assert.NotContains(t, out, "aaaaaaaa-bbbb")
	assert.Contains(t, out, "2026-08-30 10:00")
	assert.Contains(t, out, "1m30s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789"))
	assert.Equal(t, "short", truncateID("short"))
}
