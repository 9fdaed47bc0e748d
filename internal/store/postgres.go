package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wikipedia-enrich/internal/db"
	"github.com/sells-group/wikipedia-enrich/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_company": companySelect + ` WHERE id = $1`,
	"record_run": `INSERT INTO enrichment_runs (id, total, found, not_found, failed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"list_runs": `SELECT id, total, found, not_found, failed, started_at, finished_at
		FROM enrichment_runs ORDER BY started_at DESC LIMIT $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, primarily for tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id            BIGSERIAL PRIMARY KEY,
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
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id          TEXT PRIMARY KEY,
	total       INTEGER NOT NULL,
	found       INTEGER NOT NULL,
	not_found   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_started_at ON enrichment_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) InsertCompany(ctx context.Context, name string, fields model.ExtractedFields) (*model.Company, error) {
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
		`INSERT INTO companies (%s) VALUES (%s) RETURNING id`,
		strings.Join(cols, ", "),
		pgPlaceholders(1, len(cols)),
	)

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, eris.Wrapf(err, "postgres: insert company %q", name)
	}

	existing := model.ExtractedFields{}
	for k, v := range fields {
		existing.Set(k, v)
	}
	return &model.Company{ID: id, Name: name, Existing: existing, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, companySelect+` WHERE id = $1`, id)
	return scanCompany(row)
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := companySelect + ` WHERE 1=1`
	var args []any

	if len(filter.IDs) > 0 {
		query += ` AND id IN (` + pgPlaceholders(len(args)+1, len(filter.IDs)) + `)`
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
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
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
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) UpdateCompanyFields(ctx context.Context, id int64, fields model.ExtractedFields) error {
	keys, vals, err := orderedFieldArgs(fields)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	var set []string
	for i, key := range keys {
		set = append(set, fmt.Sprintf("%s = $%d", fieldColumns[key], i+1))
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", len(keys)+1))
	args := append(vals, time.Now().UTC(), id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE companies SET %s WHERE id = $%d`, strings.Join(set, ", "), len(keys)+2),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ImportCompanies(ctx context.Context, companies []model.Company) (int64, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(companies))
	for i, c := range companies {
		rows[i] = seedRow(c)
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      append([]string{"name"}, columnsInOrder()...),
		ConflictKeys: []string{"name"},
		DoNothing:    true,
	}, rows)
}

func (s *PostgresStore) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_runs (id, total, found, not_found, failed, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Total, rec.Found, rec.NotFound, rec.Failed, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: record run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, total, found, not_found, failed, started_at, finished_at
		 FROM enrichment_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Total, &r.Found, &r.NotFound, &r.Failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// pgPlaceholders renders $start..$start+n-1.
func pgPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
