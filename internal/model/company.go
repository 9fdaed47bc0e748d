// Package model defines the data types shared across the enrichment pipeline.
package model

import "time"

// Company is one input record to an enrichment run. Existing holds whatever
// the store already has for the company; it may contain empty strings or
// placeholder domains that the merger treats as not-really-set.
type Company struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Existing ExtractedFields `json:"existing_fields,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Field keys the pipeline can produce.
const (
	FieldDescription  = "description"
	FieldLogo         = "company_logo"
	FieldWikipediaURL = "wikipedia_url"
	FieldWebsite      = "website"
	FieldYearFounded  = "year_founded"
	FieldHeadquarters = "headquarters"
	FieldIndustry     = "industry"
	FieldType         = "type"
	FieldCEOName      = "ceo_name"
	FieldCEOTitle     = "ceo_title"
	FieldRevenue      = "revenue"
	FieldEmployees    = "employees"
	FieldMission      = "mission"
)

// AllFields lists every recognized field key in persistence order.
var AllFields = []string{
	FieldDescription,
	FieldLogo,
	FieldWikipediaURL,
	FieldWebsite,
	FieldYearFounded,
	FieldHeadquarters,
	FieldIndustry,
	FieldType,
	FieldCEOName,
	FieldCEOTitle,
	FieldRevenue,
	FieldEmployees,
	FieldMission,
}

// ExtractedFields maps field keys to extracted values. String fields hold
// trimmed strings; year_founded and employees hold ints.
type ExtractedFields map[string]any

// Set stores a value, dropping empty strings and zero ints.
func (f ExtractedFields) Set(key string, value any) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
	case int:
		if v == 0 {
			return
		}
	case nil:
		return
	}
	f[key] = value
}

// Has reports whether key holds a non-empty value.
func (f ExtractedFields) Has(key string) bool {
	switch v := f[key].(type) {
	case string:
		return v != ""
	case int:
		return v != 0
	case nil:
		return false
	default:
		return true
	}
}

// String returns the value for key as a string, or "" if absent or not a string.
func (f ExtractedFields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int returns the value for key as an int, tolerating numeric JSON decodes.
func (f ExtractedFields) Int(key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
