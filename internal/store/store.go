// Package store persists companies and enrichment run history, with SQLite
// and PostgreSQL backends behind one interface.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// ErrNotFound is returned when a company id does not exist.
var ErrNotFound = eris.New("store: company not found")

// CompanyFilter specifies criteria for listing companies.
type CompanyFilter struct {
	// IDs restricts the result to specific companies.
	IDs []int64 `json:"ids,omitempty"`
	// MissingField selects only companies where the given field is unset,
	// the natural input set for an enrichment run.
	MissingField string `json:"missing_field,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// RunRecord is the persisted audit entry for one batch run.
type RunRecord struct {
	ID         string    `json:"id"`
	Total      int       `json:"total"`
	Found      int       `json:"found"`
	NotFound   int       `json:"not_found"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Companies
	InsertCompany(ctx context.Context, name string, fields model.ExtractedFields) (*model.Company, error)
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	// UpdateCompanyFields writes only the given fields; everything else on
	// the row is left untouched.
	UpdateCompanyFields(ctx context.Context, id int64, fields model.ExtractedFields) error
	// ImportCompanies bulk-loads seed records, skipping names that already
	// exist. Returns the number of rows inserted.
	ImportCompanies(ctx context.Context, companies []model.Company) (int64, error)

	// Run history
	RecordRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver string      `yaml:"driver" mapstructure:"driver"`
	DSN    string      `yaml:"dsn" mapstructure:"dsn"`
	Pool   *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open creates the store named by cfg.Driver. An empty driver defaults to
// SQLite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN, cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// fieldColumns maps field keys to their column names. Keys absent from this
// map are rejected by the stores.
var fieldColumns = map[string]string{
	model.FieldDescription:  "description",
	model.FieldLogo:         "company_logo",
	model.FieldWikipediaURL: "wikipedia_url",
	model.FieldWebsite:      "website",
	model.FieldYearFounded:  "year_founded",
	model.FieldHeadquarters: "headquarters",
	model.FieldIndustry:     "industry",
	model.FieldType:         "company_type",
	model.FieldCEOName:      "ceo_name",
	model.FieldCEOTitle:     "ceo_title",
	model.FieldRevenue:      "revenue",
	model.FieldEmployees:    "employees",
	model.FieldMission:      "mission",
}

// intFields holds the field keys stored as integer columns.
var intFields = map[string]bool{
	model.FieldYearFounded: true,
	model.FieldEmployees:   true,
}

// columnsInOrder returns the field columns in model.AllFields order, for
// stable SELECT and UPDATE statements.
func columnsInOrder() []string {
	cols := make([]string, len(model.AllFields))
	for i, key := range model.AllFields {
		cols[i] = fieldColumns[key]
	}
	return cols
}

// companySelect is the shared projection; scanCompany expects exactly this
// column order.
var companySelect = `SELECT id, name, ` + strings.Join(columnsInOrder(), ", ") + `, created_at, updated_at FROM companies`

// missingPredicate builds the WHERE clause for "this field is unset".
func missingPredicate(key string) (string, error) {
	col, ok := fieldColumns[key]
	if !ok {
		return "", eris.Errorf("store: unknown field %q", key)
	}
	if intFields[key] {
		return "(" + col + " IS NULL OR " + col + " = 0)", nil
	}
	return "(" + col + " IS NULL OR " + col + " = '')", nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var (
		description, logo, wikiURL, website sql.NullString
		headquarters, industry, companyType sql.NullString
		ceoName, ceoTitle, revenue, mission sql.NullString
		yearFounded, employees              sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &c.Name,
		&description, &logo, &wikiURL, &website,
		&yearFounded, &headquarters, &industry, &companyType,
		&ceoName, &ceoTitle, &revenue, &employees, &mission,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan company")
	}

	c.Existing = model.ExtractedFields{}
	c.Existing.Set(model.FieldDescription, description.String)
	c.Existing.Set(model.FieldLogo, logo.String)
	c.Existing.Set(model.FieldWikipediaURL, wikiURL.String)
	c.Existing.Set(model.FieldWebsite, website.String)
	c.Existing.Set(model.FieldYearFounded, int(yearFounded.Int64))
	c.Existing.Set(model.FieldHeadquarters, headquarters.String)
	c.Existing.Set(model.FieldIndustry, industry.String)
	c.Existing.Set(model.FieldType, companyType.String)
	c.Existing.Set(model.FieldCEOName, ceoName.String)
	c.Existing.Set(model.FieldCEOTitle, ceoTitle.String)
	c.Existing.Set(model.FieldRevenue, revenue.String)
	c.Existing.Set(model.FieldEmployees, int(employees.Int64))
	c.Existing.Set(model.FieldMission, mission.String)
	return &c, nil
}

// orderedFieldArgs validates fields against the column map and returns the
// present keys in model.AllFields order with their values.
func orderedFieldArgs(fields model.ExtractedFields) ([]string, []any, error) {
	var keys []string
	var vals []any
	for key := range fields {
		if _, ok := fieldColumns[key]; !ok {
			return nil, nil, eris.Errorf("store: unknown field %q", key)
		}
	}
	for _, key := range model.AllFields {
		if _, ok := fields[key]; !ok {
			continue
		}
		keys = append(keys, key)
		if intFields[key] {
			vals = append(vals, fields.Int(key))
		} else {
			vals = append(vals, fields.String(key))
		}
	}
	return keys, vals, nil
}

// seedRow builds one bulk-load row: name followed by the field columns in
// model.AllFields order, with NULL for anything unset.
func seedRow(c model.Company) []any {
	row := make([]any, 0, len(model.AllFields)+1)
	row = append(row, c.Name)
	for _, key := range model.AllFields {
		if !c.Existing.Has(key) {
			row = append(row, nil)
			continue
		}
		if intFields[key] {
			row = append(row, c.Existing.Int(key))
		} else {
			row = append(row, c.Existing.String(key))
		}
	}
	return row
}
