package model

// SearchCandidate is one raw search hit for a company name. Title is the only
// stable identity key across the search and content endpoints.
type SearchCandidate struct {
	Title   string `json:"title"`
	PageID  int    `json:"pageid"`
	Snippet string `json:"snippet"`
}

// Confidence buckets a numeric match score.
type Confidence string

// Confidence tiers from strongest to weakest.
const (
	ConfidenceHigh          Confidence = "high"
	ConfidenceDisambiguated Confidence = "high-disambiguated"
	ConfidenceMedium        Confidence = "medium"
	ConfidenceLow           Confidence = "low"
)

// Confident reports whether the tier is strong enough to accept as a match.
func (c Confidence) Confident() bool {
	return c == ConfidenceHigh || c == ConfidenceDisambiguated || c == ConfidenceMedium
}

// ScoredCandidate is a SearchCandidate with its heuristic match score.
// Reasons records each scoring signal that fired, in evaluation order.
type ScoredCandidate struct {
	SearchCandidate
	Score      int        `json:"score"`
	Reasons    []string   `json:"reasons,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Summary is the canonical article summary for a resolved candidate.
type Summary struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	CanonicalURL string `json:"canonical_url,omitempty"`
}

// ArticleData holds everything fetched for a resolved candidate. RawHTML is
// empty when the content fetch failed but the summary was still available.
type ArticleData struct {
	Summary Summary `json:"summary"`
	RawHTML string  `json:"-"`
}

// EnrichmentResult is the terminal output for one company. Found=false with a
// populated Error means an actual failure; "no confident match" is a normal
// outcome reported through Reason.
type EnrichmentResult struct {
	Company Company          `json:"company"`
	Found   bool             `json:"found"`
	Match   *ScoredCandidate `json:"match,omitempty"`
	Fields  ExtractedFields  `json:"fields,omitempty"`
	Reason  string           `json:"reason,omitempty"`
	Error   string           `json:"error,omitempty"`
}
