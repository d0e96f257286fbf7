package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mountisa-community/directory-cli/internal/db"
	"github.com/mountisa-community/directory-cli/internal/model"
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

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

// Pool exposes the underlying pool for bulk loaders.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS services (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL DEFAULT '',
	website          TEXT NOT NULL DEFAULT '',
	address          TEXT NOT NULL DEFAULT '',
	suburb           TEXT NOT NULL DEFAULT '',
	postcode         TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL DEFAULT 'community',
	data_source      TEXT NOT NULL DEFAULT '',
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	provenance       JSONB NOT NULL DEFAULT '{}',
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_services_name_address ON services(lower(name), address);
CREATE INDEX IF NOT EXISTS idx_services_category ON services(category);
CREATE INDEX IF NOT EXISTS idx_services_suburb ON services(suburb);
CREATE INDEX IF NOT EXISTS idx_services_is_active ON services(is_active);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const pgServiceColumns = `id, name, description, phone, email, website, address, suburb, postcode, state,
	category, data_source, confidence_score, provenance, is_active, created_at, updated_at`

func (s *PostgresStore) ListActive(ctx context.Context) ([]model.ServiceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgServiceColumns+` FROM services WHERE is_active ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active")
	}
	defer rows.Close()
	return collectPgServices(rows)
}

func (s *PostgresStore) ListServices(ctx context.Context, filter ListFilter) ([]model.ServiceRecord, error) {
	query := `SELECT ` + pgServiceColumns + ` FROM services WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeInactive {
		query += ` AND is_active`
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(string(filter.Category))
	}
	if filter.Suburb != "" {
		query += ` AND lower(suburb) = lower(` + arg(filter.Suburb) + `)`
	}
	if filter.DataSource != "" {
		query += ` AND data_source = ` + arg(filter.DataSource)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += ` AND (name ILIKE ` + p + ` OR description ILIKE ` + p + `)`
	}
	query += ` ORDER BY name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list services")
	}
	defer rows.Close()
	return collectPgServices(rows)
}

func (s *PostgresStore) GetService(ctx context.Context, id string) (*model.ServiceRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgServiceColumns+` FROM services WHERE id = $1`,
		id,
	)
	rec, err := scanPgService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get service")
	}
	return rec, nil
}

func (s *PostgresStore) InsertService(ctx context.Context, rec *model.ServiceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	provJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal provenance")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO services (`+pgServiceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		rec.ID, rec.Name, rec.Description, rec.Phone, rec.Email, rec.Website,
		rec.Address, rec.Suburb, rec.Postcode, rec.State,
		string(rec.Category), rec.DataSource, rec.ConfidenceScore, provJSON,
		rec.IsActive, rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert service %s", rec.Name)
}

func (s *PostgresStore) UpdateService(ctx context.Context, rec *model.ServiceRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	provJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal provenance")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE services SET name = $1, description = $2, phone = $3, email = $4, website = $5,
		 address = $6, suburb = $7, postcode = $8, state = $9, category = $10,
		 confidence_score = $11, provenance = $12, is_active = $13, updated_at = $14
		 WHERE id = $15`,
		rec.Name, rec.Description, rec.Phone, rec.Email, rec.Website,
		rec.Address, rec.Suburb, rec.Postcode, rec.State, string(rec.Category),
		rec.ConfidenceScore, provJSON, rec.IsActive, rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update service %s", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) DeactivateService(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE services SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: deactivate service %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	return nil
}

func (s *PostgresStore) CountServices(ctx context.Context) (*Counts, error) {
	c := &Counts{BySource: map[string]int{}}

	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM services`,
	)
	if err := row.Scan(&c.Total, &c.Active); err != nil {
		return nil, eris.Wrap(err, "postgres: count services")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data_source, COUNT(*) FROM services GROUP BY data_source`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by source")
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source count")
		}
		c.BySource[src] = n
	}
	return c, eris.Wrap(rows.Err(), "postgres: count iterate")
}

// helpers

func scanPgService(row pgx.Row) (*model.ServiceRecord, error) {
	var rec model.ServiceRecord
	var category string
	var provJSON []byte

	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.Phone, &rec.Email, &rec.Website,
		&rec.Address, &rec.Suburb, &rec.Postcode, &rec.State,
		&category, &rec.DataSource, &rec.ConfidenceScore, &provJSON,
		&rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Category = model.CategoryTag(category)
	if len(provJSON) > 0 {
		if err := json.Unmarshal(provJSON, &rec.Provenance); err != nil {
			return nil, eris.Wrap(err, "unmarshal provenance")
		}
	}
	return &rec, nil
}

func collectPgServices(rows pgx.Rows) ([]model.ServiceRecord, error) {
	var recs []model.ServiceRecord
	for rows.Next() {
		rec, err := scanPgService(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan service")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "iterate services")
}
