// Package normalize strips corporate noise from company names to produce the
// core matching key used by search and scoring.
package normalize

import (
	"regexp"
	"strings"
)

// Name pairs a raw company name with its stripped core form.
type Name struct {
	Original string `json:"original"`
	Core     string `json:"core_name"`
}

// Applied in order: trailing parenthetical qualifier, legal-entity suffix,
// generic business-unit suffix. Each strip trims surrounding whitespace.
var (
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	legalSuffixRe   = regexp.MustCompile(`(?i)[,\s]+(inc\.?|llc|corp\.?|corporation|ltd\.?|limited|co\.?|company)\s*$`)
	unitSuffixRe    = regexp.MustCompile(`(?i)\s+(systems|technologies|solutions|services|group|associates)\s*$`)
)

// Normalize derives the core name for raw. It is idempotent: normalizing a
// core name yields the same core name. Empty input yields an empty Name.
func Normalize(raw string) Name {
	core := strings.TrimSpace(raw)
	core = strings.TrimSpace(parentheticalRe.ReplaceAllString(core, ""))
	core = strings.TrimSpace(legalSuffixRe.ReplaceAllString(core, ""))
	core = strings.TrimSpace(unitSuffixRe.ReplaceAllString(core, ""))
	return Name{Original: strings.TrimSpace(raw), Core: core}
}

// HasCore reports whether stripping changed the name.
func (n Name) HasCore() bool {
	return n.Core != "" && !strings.EqualFold(n.Core, n.Original)
}
