package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
)

// personName matches a capitalized word sequence: a name word or an initial,
// repeated two to five times. Excluding the period from name words keeps a
// sentence boundary from gluing two names together; initials get it back.
const personName = `(?:[A-Z][A-Za-z'\-]+|[A-Z]\.)(?: (?:[A-Z][A-Za-z'\-]+|[A-Z]\.)){1,4}`

// textPatterns holds the ordered regex lists for prose extraction. The first
// pattern in a list that matches wins; there is no cross-pattern voting.
// Capture group 1 is the extracted value.
var textPatterns = map[string][]*regexp.Regexp{
	model.FieldWebsite: {
		regexp.MustCompile(`(?i:website|homepage|web site|portal)[:\s]+(?:at\s+)?(https?://\S+|www\.[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\S*|[A-Za-z0-9\-]+\.(?:com|org|net|gov|edu|io)\b)`),
		regexp.MustCompile(`\b(https?://[A-Za-z0-9.\-]+\.[A-Za-z]{2,}(?:/\S*)?)`),
		regexp.MustCompile(`\b(www\.[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`),
	},
	model.FieldYearFounded: {
		regexp.MustCompile(`(?i:founded|established|formed|created|incorporated)\s+(?:in|on)?\s*(\d{4})`),
		regexp.MustCompile(`(?i:since)\s+(\d{4})`),
	},
	model.FieldHeadquarters: {
		regexp.MustCompile(`(?i:headquartered|based|located)\s+in\s+([A-Z][A-Za-z .,'\-]+?)(?:[.;]|,? and\b|$)`),
	},
	model.FieldCEOName: {
		regexp.MustCompile(`(?i:led by|headed by)\s+(` + personName + `)`),
		regexp.MustCompile(`\b(?:CEO|Director|Administrator|Secretary|President)\s+(?:is\s+)?(` + personName + `)`),
		regexp.MustCompile(`(` + personName + `)\s+(?i:is|serves as)\s+(?i:the\s+)?(?i:ceo|chief executive|director|administrator)`),
	},
}

// Fields the text extractor may fill, in extraction order.
var textFields = []string{
	model.FieldWebsite,
	model.FieldYearFounded,
	model.FieldHeadquarters,
	model.FieldCEOName,
	model.FieldMission,
}

// missionGate keywords admit a sentence as a mission statement.
var missionGate = []string{
	"mission", "purpose", "goal", "objective", "aim", "vision", "responsible for",
}

var (
	sentenceRe   = regexp.MustCompile(`[.!?]\s+`)
	determinerRe = regexp.MustCompile(`^(?i:the|a|an|its|our)\s+`)
)

// TextExtractor is the regex-based fallback when the infobox is absent or
// incomplete. It only ever fills gaps: fields already resolved upstream or
// populated on the stored record are skipped.
type TextExtractor struct {
	websiteOverrides map[string]string
}

// NewTextExtractor creates a TextExtractor. overrides is the known
// company-to-canonical-website table; short entity names produce unreliable
// pattern matches without it.
func NewTextExtractor(overrides map[string]string) *TextExtractor {
	return &TextExtractor{websiteOverrides: overrides}
}

// Extract runs the pattern lists over the article prose for every still
// missing field and returns just the newly extracted entries.
func (t *TextExtractor) Extract(text string, name normalize.Name, have, existing model.ExtractedFields) model.ExtractedFields {
	out := model.ExtractedFields{}
	if strings.TrimSpace(text) == "" {
		return out
	}

	for _, field := range textFields {
		if have.Has(field) || existing.Has(field) {
			continue
		}

		switch field {
		case model.FieldWebsite:
			out.Set(field, t.website(text, name))
		case model.FieldYearFounded:
			if year := firstYear(firstMatch(textPatterns[field], text)); year > 0 {
				out.Set(field, year)
			}
		case model.FieldCEOName:
			ceo := strings.TrimRight(strings.TrimSpace(firstMatch(textPatterns[field], text)), ".,;:")
			if ceo != "" {
				out.Set(field, ceo)
				if !have.Has(model.FieldCEOTitle) && !existing.Has(model.FieldCEOTitle) {
					out.Set(model.FieldCEOTitle, titleFromProse(text, ceo))
				}
			}
		case model.FieldMission:
			out.Set(field, mission(text))
		default:
			out.Set(field, strings.TrimSpace(firstMatch(textPatterns[field], text)))
		}
	}

	return out
}

// website consults the override table before the generic patterns.
func (t *TextExtractor) website(text string, name normalize.Name) string {
	for _, key := range []string{strings.ToLower(name.Original), strings.ToLower(name.Core)} {
		if site, ok := t.websiteOverrides[key]; ok {
			return site
		}
	}

	site := firstMatch(textPatterns[model.FieldWebsite], text)
	site = strings.TrimRight(site, ".,;)")
	return normalizeWebsite(site)
}

// titleFromProse infers an executive title from keywords near the extracted
// name, defaulting to CEO.
func titleFromProse(text, ceo string) string {
	idx := strings.Index(text, ceo)
	if idx < 0 {
		return "CEO"
	}
	// A window around the name catches both "Director Jane Doe" and
	// "Jane Doe, the administrator of".
	start := max(0, idx-60)
	end := min(len(text), idx+len(ceo)+60)
	window := strings.ToLower(text[start:end])

	for _, et := range executiveTitles {
		if strings.Contains(window, et.keyword) {
			return et.title
		}
	}
	return "CEO"
}

// mission returns the first sentence that passes the keyword gate, with any
// leading determiner stripped.
func mission(text string) string {
	for _, sentence := range sentenceRe.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, gate := range missionGate {
			if strings.Contains(lower, gate) {
				sentence = determinerRe.ReplaceAllString(sentence, "")
				return strings.TrimRight(sentence, ".") + "."
			}
		}
	}
	return ""
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
