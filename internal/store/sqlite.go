package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	description   TEXT,
	company_logo  TEXT,
	wikipedia_url TEXT,
	website       TEXT,
	year_founded  INTEGER,
	headquarters  TEXT,
	industry      TEXT,
	company_type  TEXT,
	ceo_name      TEXT,
	ceo_title     TEXT,
	revenue       TEXT,
	employees     INTEGER,
	mission       TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id          TEXT PRIMARY KEY,
	total       INTEGER NOT NULL,
	found       INTEGER NOT NULL,
	not_found   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_started_at ON enrichment_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertCompany(ctx context.Context, name string, fields model.ExtractedFields) (*model.Company, error) {
	keys, vals, err := orderedFieldArgs(fields)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	cols := []string{"name"}
	for _, key := range keys {
		cols = append(cols, fieldColumns[key])
	}
	cols = append(cols, "created_at", "updated_at")

	args := append([]any{name}, vals...)
	args = append(args, now, now)

	query := fmt.Sprintf(
		`INSERT INTO companies (%s) VALUES (%s)`,
		strings.Join(cols, ", "),
		placeholders(len(cols)),
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert company %q", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last insert id")
	}

	existing := model.ExtractedFields{}
	for k, v := range fields {
		existing.Set(k, v)
	}
	return &model.Company{ID: id, Name: name, Existing: existing, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx, companySelect+` WHERE id = ?`, id)
	return scanCompany(row)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := companySelect + ` WHERE 1=1`
	var args []any

	if len(filter.IDs) > 0 {
		query += ` AND id IN (` + placeholders(len(filter.IDs)) + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.MissingField != "" {
		pred, err := missingPredicate(filter.MissingField)
		if err != nil {
			return nil, err
		}
		query += ` AND ` + pred
	}
	query += ` ORDER BY id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) UpdateCompanyFields(ctx context.Context, id int64, fields model.ExtractedFields) error {
	keys, vals, err := orderedFieldArgs(fields)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	var set []string
	for _, key := range keys {
		set = append(set, fieldColumns[key]+" = ?")
	}
	set = append(set, "updated_at = ?")
	args := append(vals, time.Now().UTC(), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET `+strings.Join(set, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ImportCompanies(ctx context.Context, companies []model.Company) (int64, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import begin tx")
	}
	defer tx.Rollback()

	cols := append([]string{"name"}, columnsInOrder()...)
	query := fmt.Sprintf(
		`INSERT INTO companies (%s) VALUES (%s) ON CONFLICT(name) DO NOTHING`,
		strings.Join(cols, ", "),
		placeholders(len(cols)),
	)

	var inserted int64
	for _, c := range companies {
		res, err := tx.ExecContext(ctx, query, seedRow(c)...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import company %q", c.Name)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import commit")
	}
	return inserted, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_runs (id, total, found, not_found, failed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Total, rec.Found, rec.NotFound, rec.Failed, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: record run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, total, found, not_found, failed, started_at, finished_at
		 FROM enrichment_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Total, &r.Found, &r.NotFound, &r.Failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
