package enrich

import (
	"strings"

	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// Merger combines extracted fields with the stored record, only ever filling
// gaps. A stored value survives unless it is empty or recognizably a
// placeholder, which makes re-running enrichment on a fully enriched record
// a no-op.
type Merger struct {
	placeholderDomains []string
	logoPlaceholders   []string
}

// NewMerger creates a Merger using the placeholder tables from rules.
func NewMerger(rules match.Rules) *Merger {
	return &Merger{
		placeholderDomains: rules.PlaceholderDomains,
		logoPlaceholders:   match.LogoPlaceholderDomains,
	}
}

// Merge returns the fields to persist. Infobox-derived values beat
// text-derived values for the same field; the structured table is the more
// reliable source.
func (m *Merger) Merge(infobox, text, existing model.ExtractedFields) model.ExtractedFields {
	out := model.ExtractedFields{}
	for _, key := range model.AllFields {
		var value any
		switch {
		case infobox.Has(key):
			value = infobox[key]
		case text.Has(key):
			value = text[key]
		default:
			continue
		}
		if m.replaceable(existing, key) {
			out.Set(key, value)
		}
	}
	return out
}

// replaceable reports whether the stored value for key may be filled.
func (m *Merger) replaceable(existing model.ExtractedFields, key string) bool {
	if !existing.Has(key) {
		return true
	}
	value, ok := existing[key].(string)
	if !ok {
		return false
	}

	lower := strings.ToLower(value)
	for _, domain := range m.placeholderDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	if key == model.FieldLogo {
		for _, domain := range m.logoPlaceholders {
			if strings.Contains(lower, domain) {
				return true
			}
		}
	}
	return false
}
