package match

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
)

// Scorer ranks search candidates for a company name.
type Scorer struct {
	rules Rules
}

// NewScorer creates a Scorer over the given rule tables.
func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Best scores every candidate independently and returns the strongest match,
// or nil when nothing clears the confidence floor. A low-confidence best of a
// bad lot is treated as no match. Ties keep input order.
func (s *Scorer) Best(cands []model.SearchCandidate, name normalize.Name) *model.ScoredCandidate {
	if len(cands) == 0 {
		return nil
	}

	if hit := s.disambiguate(cands, name); hit != nil {
		return hit
	}

	var best *model.ScoredCandidate
	for _, c := range cands {
		score, reasons := s.score(c, name)
		if score <= s.rules.Weights.MinScore {
			continue
		}
		if best == nil || score > best.Score {
			best = &model.ScoredCandidate{
				SearchCandidate: c,
				Score:           score,
				Reasons:         reasons,
				Confidence:      s.Classify(score),
			}
		}
	}

	if best == nil || !best.Confidence.Confident() {
		return nil
	}

	zap.L().Debug("match: best candidate",
		zap.String("company", name.Original),
		zap.String("title", best.Title),
		zap.Int("score", best.Score),
		zap.String("confidence", string(best.Confidence)),
	)
	return best
}

// disambiguate consults the override table for well-known ambiguous names.
// A match returns immediately with high-disambiguated confidence, bypassing
// heuristic scoring entirely.
func (s *Scorer) disambiguate(cands []model.SearchCandidate, name normalize.Name) *model.ScoredCandidate {
	preferred, ok := s.rules.Disambiguation[strings.ToLower(name.Original)]
	if !ok {
		preferred, ok = s.rules.Disambiguation[strings.ToLower(name.Core)]
	}
	if !ok {
		return nil
	}

	for _, title := range preferred {
		for _, c := range cands {
			if strings.EqualFold(c.Title, title) {
				return &model.ScoredCandidate{
					SearchCandidate: c,
					Score:           s.rules.Weights.HighScore,
					Reasons:         []string{"disambiguation override: " + title},
					Confidence:      model.ConfidenceDisambiguated,
				}
			}
		}
	}
	return nil
}

// score applies the weighted heuristic to a single candidate.
func (s *Scorer) score(c model.SearchCandidate, name normalize.Name) (int, []string) {
	title := strings.ToLower(c.Title)
	snippet := strings.ToLower(c.Snippet)
	original := strings.ToLower(name.Original)
	core := strings.ToLower(name.Core)

	for _, term := range s.rules.BlockTerms {
		if strings.Contains(title, term) || strings.Contains(snippet, term) {
			return blockedScore, []string{"blocked term: " + term}
		}
	}

	nameInTitle := containsName(title, original, core)
	bizHits := countHits(snippet, s.rules.BusinessTerms)
	if !nameInTitle && bizHits == 0 {
		return irrelevantScore, []string{"no relevance signal"}
	}

	w := s.rules.Weights
	score := 0
	var reasons []string

	if nameInTitle {
		score += w.NameInTitle
		reasons = append(reasons, "name in title")
	}
	if bizHits > 0 {
		score += w.BusinessKeyword * bizHits
		reasons = append(reasons, fmt.Sprintf("%d business context keywords", bizHits))
	}
	if title == original || (core != "" && title == core) {
		score += w.ExactTitle
		reasons = append(reasons, "exact title match")
	}
	if isTitleVariation(title, original, core) {
		score += w.TitleVariation
		reasons = append(reasons, "disambiguation-form title")
	}
	if hasNamePrefix(title, original, core) {
		score += w.TitlePrefix
		reasons = append(reasons, "title starts with name")
	}
	if s.hasCorporateSuffixTitle(title, original, core) {
		score += w.TitleSuffix
		reasons = append(reasons, "name plus corporate suffix")
	}
	if industryHits := countHits(title+" "+snippet, s.rules.IndustryTerms); industryHits > 0 {
		score += w.IndustryKeyword * industryHits
		reasons = append(reasons, fmt.Sprintf("%d industry keywords", industryHits))
	}

	return score, reasons
}

// Classify buckets a score into a confidence tier.
func (s *Scorer) Classify(score int) model.Confidence {
	w := s.rules.Weights
	switch {
	case score >= w.HighScore:
		return model.ConfidenceHigh
	case score >= w.MediumScore:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func containsName(title, original, core string) bool {
	if original != "" && strings.Contains(title, original) {
		return true
	}
	return core != "" && strings.Contains(title, core)
}

func isTitleVariation(title, original, core string) bool {
	for _, base := range nameForms(original, core) {
		if title == base+" (company)" || title == base+" (organization)" {
			return true
		}
	}
	return false
}

func hasNamePrefix(title, original, core string) bool {
	for _, base := range nameForms(original, core) {
		if strings.HasPrefix(title, base+" ") {
			return true
		}
	}
	return false
}

func (s *Scorer) hasCorporateSuffixTitle(title, original, core string) bool {
	for _, base := range nameForms(original, core) {
		for _, suffix := range s.rules.CorporateSuffixes {
			if title == base+" "+suffix || title == base+", "+suffix {
				return true
			}
		}
	}
	return false
}

func nameForms(original, core string) []string {
	if core == "" || core == original {
		return []string{original}
	}
	return []string{original, core}
}

func countHits(haystack string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			n++
		}
	}
	return n
}
