// Package match scores search candidates against a company name and selects
// the best match above a confidence floor.
package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the tunable scoring constants. The defaults are an empirical
// starting calibration, not ground truth; keeping them in data lets them be
// re-tuned against a labeled set without a code change.
type Weights struct {
	NameInTitle     int `yaml:"name_in_title"`
	BusinessKeyword int `yaml:"business_keyword"`
	ExactTitle      int `yaml:"exact_title"`
	TitleVariation  int `yaml:"title_variation"`
	TitlePrefix     int `yaml:"title_prefix"`
	TitleSuffix     int `yaml:"title_suffix"`
	IndustryKeyword int `yaml:"industry_keyword"`

	MinScore    int `yaml:"min_score"`
	MediumScore int `yaml:"medium_score"`
	HighScore   int `yaml:"high_score"`
}

// Scores assigned on immediate rejection.
const (
	blockedScore    = -200
	irrelevantScore = -100
)

// Rules bundles every data table the scorer consults.
type Rules struct {
	Weights Weights `yaml:"weights"`

	// Disambiguation maps a lower-cased company key (name or core name) to
	// an ordered list of preferred exact article titles. Generic scoring
	// cannot tell Amazon the company from Amazon the river; prior knowledge
	// can.
	Disambiguation map[string][]string `yaml:"disambiguation"`

	// BlockTerms reject a candidate outright when found in title or snippet.
	BlockTerms []string `yaml:"block_terms"`

	// BusinessTerms are snippet keywords that signal a business context.
	BusinessTerms []string `yaml:"business_terms"`

	// IndustryTerms are weak corroborating keywords in title or snippet.
	IndustryTerms []string `yaml:"industry_terms"`

	// CorporateSuffixes complete a "<core name> <suffix>" title match.
	CorporateSuffixes []string `yaml:"corporate_suffixes"`

	// WebsiteOverrides maps a lower-cased company key to its canonical
	// website, bypassing unreliable prose extraction for short names.
	WebsiteOverrides map[string]string `yaml:"website_overrides"`

	// PlaceholderDomains mark stored values as not-really-set.
	PlaceholderDomains []string `yaml:"placeholder_domains"`
}

// DefaultRules returns the compiled-in rule tables.
func DefaultRules() Rules {
	return Rules{
		Weights: Weights{
			NameInTitle:     50,
			BusinessKeyword: 15,
			ExactTitle:      100,
			TitleVariation:  90,
			TitlePrefix:     70,
			TitleSuffix:     80,
			IndustryKeyword: 2,
			MinScore:        40,
			MediumScore:     60,
			HighScore:       90,
		},
		Disambiguation: map[string][]string{
			"amazon":  {"Amazon (company)", "Amazon.com"},
			"apple":   {"Apple Inc."},
			"oracle":  {"Oracle Corporation"},
			"shell":   {"Shell plc"},
			"delta":   {"Delta Air Lines"},
			"target":  {"Target Corporation"},
			"ford":    {"Ford Motor Company"},
			"visa":    {"Visa Inc."},
			"caterpillar": {"Caterpillar Inc."},
			"tesla":   {"Tesla, Inc."},
		},
		BlockTerms: []string{
			"river", "rainforest", "species", "genus", "moth", "butterfly",
			"beetle", "plant family", "fungus", "bird", "fish",
			"mythology", "mythological", "goddess", "deity",
			"album", "song", "film", "band", "tv series", "novel", "singer",
			"village", "mountain", "crater", "constellation", "warrior women",
		},
		BusinessTerms: []string{
			"company", "corporation", "multinational", "conglomerate", "firm",
			"founded", "headquarters", "headquartered", "ceo", "subsidiary",
			"nasdaq", "nyse", "stock exchange", "fortune 500", "s&p 500",
			"nonprofit", "non-profit", "government agency", "organization",
			"enterprise", "manufacturer",
		},
		IndustryTerms: []string{
			"technology", "software", "consulting", "healthcare", "financial",
			"retail", "manufacturing", "aerospace", "defense", "government",
			"telecommunications", "energy", "logistics", "insurance",
			"pharmaceutical", "automotive", "banking", "e-commerce",
		},
		CorporateSuffixes: []string{
			"inc.", "inc", "llc", "corp.", "corp", "corporation",
			"ltd.", "ltd", "limited", "co.", "company", "plc", "group",
		},
		WebsiteOverrides: map[string]string{
			"aws":                         "https://aws.amazon.com",
			"amazon web services":         "https://aws.amazon.com",
			"bis":                         "https://www.bis.doc.gov",
			"bureau of industry and security": "https://www.bis.doc.gov",
			"nasa":                        "https://www.nasa.gov",
			"gsa":                         "https://www.gsa.gov",
		},
		PlaceholderDomains: []string{
			"example.com",
		},
		// Stock-logo hosts only count as placeholders for company_logo.
	}
}

// LogoPlaceholderDomains are third-party stock-logo hosts that mark a stored
// company_logo as replaceable.
var LogoPlaceholderDomains = []string{
	"logo.clearbit.com",
	"ui-avatars.com",
	"placeholder.com",
}

// LoadRules reads a YAML rules file and overlays it on the defaults. Only
// non-empty sections replace their default counterpart, so a file may tune a
// single table.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "match: read rules file %s", path)
	}

	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return rules, eris.Wrapf(err, "match: parse rules file %s", path)
	}

	if file.Weights != (Weights{}) {
		rules.Weights = file.Weights
	}
	if len(file.Disambiguation) > 0 {
		rules.Disambiguation = file.Disambiguation
	}
	if len(file.BlockTerms) > 0 {
		rules.BlockTerms = file.BlockTerms
	}
	if len(file.BusinessTerms) > 0 {
		rules.BusinessTerms = file.BusinessTerms
	}
	if len(file.IndustryTerms) > 0 {
		rules.IndustryTerms = file.IndustryTerms
	}
	if len(file.CorporateSuffixes) > 0 {
		rules.CorporateSuffixes = file.CorporateSuffixes
	}
	if len(file.WebsiteOverrides) > 0 {
		rules.WebsiteOverrides = file.WebsiteOverrides
	}
	if len(file.PlaceholderDomains) > 0 {
		rules.PlaceholderDomains = file.PlaceholderDomains
	}
	return rules, nil
}
