package match

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultRules())
}

func TestBest_AcmeScenario(t *testing.T) {
	t.Parallel()

	cands := []model.SearchCandidate{
		{Title: "Acme (company)", PageID: 1, Snippet: "technology company, founded 1975"},
	}
	best := newTestScorer().Best(cands, normalize.Normalize("Acme Corp"))

	require.NotNil(t, best)
	assert.Equal(t, "Acme (company)", best.Title)
	assert.Equal(t, model.ConfidenceHigh, best.Confidence)
	assert.GreaterOrEqual(t, best.Score, 90)
	assert.Contains(t, best.Reasons, "disambiguation-form title")
	assert.Contains(t, best.Reasons, "name in title")
}

func TestBest_DisambiguationOverride(t *testing.T) {
	t.Parallel()

	cands := []model.SearchCandidate{
		{Title: "Amazon (river)", PageID: 2, Snippet: "largest river by discharge volume"},
		{Title: "Amazon (company)", PageID: 3, Snippet: "American multinational technology company"},
	}
	best := newTestScorer().Best(cands, normalize.Normalize("Amazon"))

	require.NotNil(t, best)
	assert.Equal(t, "Amazon (company)", best.Title)
	assert.Equal(t, model.ConfidenceDisambiguated, best.Confidence)
}

func TestBest_NoCandidates(t *testing.T) {
	t.Parallel()

	assert.Nil(t, newTestScorer().Best(nil, normalize.Normalize("Acme")))
}

func TestBest_NothingAboveFloor(t *testing.T) {
	t.Parallel()

	cands := []model.SearchCandidate{
		{Title: "Unrelated article", Snippet: "a firm handshake"},
	}
	// One business keyword and no name-in-title scores 15, below the floor.
	assert.Nil(t, newTestScorer().Best(cands, normalize.Normalize("Acme")))
}

func TestScore_BlockTermDominates(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	name := normalize.Normalize("Acme Corp")
	c := model.SearchCandidate{
		Title:   "Acme (company)",
		Snippet: "technology company, founded 1975, named after a river",
	}
	score, reasons := s.score(c, name)
	assert.Equal(t, blockedScore, score)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "blocked term")
}

func TestScore_NoRelevanceSignal(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	score, _ := s.score(model.SearchCandidate{
		Title:   "Something else entirely",
		Snippet: "unrelated text with no signals",
	}, normalize.Normalize("Acme"))
	assert.Equal(t, irrelevantScore, score)
}

func TestScore_BusinessKeywordMonotonic(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	name := normalize.Normalize("Acme")

	base, _ := s.score(model.SearchCandidate{
		Title:   "Acme",
		Snippet: "founded in 1975",
	}, name)
	more, _ := s.score(model.SearchCandidate{
		Title:   "Acme",
		Snippet: "founded in 1975, headquarters in Springfield",
	}, name)
	assert.Greater(t, more, base)
}

func TestScore_ExactTitleMatch(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	score, reasons := s.score(model.SearchCandidate{
		Title:   "Globex",
		Snippet: "a multinational corporation",
	}, normalize.Normalize("Globex"))
	// name in title (50) + exact (100) + 2 business keywords (30).
	assert.GreaterOrEqual(t, score, 180)
	assert.Contains(t, reasons, "exact title match")
}

func TestScore_CorporateSuffixTitle(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	score, reasons := s.score(model.SearchCandidate{
		Title:   "Initech Corporation",
		Snippet: "software company",
	}, normalize.Normalize("Initech"))
	assert.Contains(t, reasons, "name plus corporate suffix")
	assert.Greater(t, score, s.rules.Weights.HighScore)
}

func TestClassify_Thresholds(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	tests := []struct {
		score int
		want  model.Confidence
	}{
		{89, model.ConfidenceMedium},
		{90, model.ConfidenceHigh},
		{59, model.ConfidenceLow},
		{60, model.ConfidenceMedium},
		{40, model.ConfidenceLow},
		{41, model.ConfidenceLow},
		{150, model.ConfidenceHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Classify(tt.score), "score %d", tt.score)
	}
}

func TestBest_FloorCutoff(t *testing.T) {
	t.Parallel()

	// Engineer weights so scores land exactly on the floor boundary.
	rules := DefaultRules()
	rules.Weights.BusinessKeyword = 40
	rules.Weights.MediumScore = 41
	s := NewScorer(rules)

	// Exactly 40: one business keyword, no name match. Never surfaced.
	assert.Nil(t, s.Best([]model.SearchCandidate{
		{Title: "Board meeting minutes", Snippet: "the corporation met"},
	}, normalize.Normalize("Acme")))

	// 80 clears the floor and the (lowered) medium threshold.
	got := s.Best([]model.SearchCandidate{
		{Title: "Board meeting minutes", Snippet: "the corporation was founded"},
	}, normalize.Normalize("Acme"))
	require.NotNil(t, got)
	assert.Equal(t, 80, got.Score)
}

func TestBest_TieKeepsInputOrder(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	name := normalize.Normalize("Acme")
	cands := []model.SearchCandidate{
		{Title: "Acme first", PageID: 1, Snippet: "a company"},
		{Title: "Acme second", PageID: 2, Snippet: "a company"},
	}
	best := s.Best(cands, name)
	require.NotNil(t, best)
	assert.Equal(t, 1, best.PageID)
}

func TestLoadRules_MissingPathUsesDefaults(t *testing.T) {
	t.Parallel()

	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, 50, rules.Weights.NameInTitle)
	assert.NotEmpty(t, rules.Disambiguation)
}

func TestLoadRules_OverlaysFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/rules.yaml"
	content := `
disambiguation:
  initech: ["Initech (company)"]
block_terms: ["asteroid"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Initech (company)"}, rules.Disambiguation["initech"])
	assert.Equal(t, []string{"asteroid"}, rules.BlockTerms)
	// Untouched sections keep defaults.
	assert.Equal(t, 50, rules.Weights.NameInTitle)
	assert.NotEmpty(t, rules.BusinessTerms)
}
