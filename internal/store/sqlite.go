package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mountisa-community/directory-cli/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS services (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL COLLATE NOCASE,
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
	confidence_score REAL NOT NULL DEFAULT 0,
	provenance       TEXT NOT NULL DEFAULT '{}',
	is_active        INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_services_name_address ON services(name, address);
CREATE INDEX IF NOT EXISTS idx_services_category ON services(category);
CREATE INDEX IF NOT EXISTS idx_services_suburb ON services(suburb);
CREATE INDEX IF NOT EXISTS idx_services_is_active ON services(is_active);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteServiceColumns = `id, name, description, phone, email, website, address, suburb, postcode, state,
	category, data_source, confidence_score, provenance, is_active, created_at, updated_at`

func (s *SQLiteStore) ListActive(ctx context.Context) ([]model.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteServiceColumns+` FROM services WHERE is_active = 1 ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active")
	}
	defer rows.Close()
	return collectServices(rows)
}

func (s *SQLiteStore) ListServices(ctx context.Context, filter ListFilter) ([]model.ServiceRecord, error) {
	query := `SELECT ` + sqliteServiceColumns + ` FROM services WHERE 1=1`
	var args []any

	if !filter.IncludeInactive {
		query += ` AND is_active = 1`
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Suburb != "" {
		query += ` AND suburb = ? COLLATE NOCASE`
		args = append(args, filter.Suburb)
	}
	if filter.DataSource != "" {
		query += ` AND data_source = ?`
		args = append(args, filter.DataSource)
	}
	if filter.Search != "" {
		query += ` AND (name LIKE ? OR description LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list services")
	}
	defer rows.Close()
	return collectServices(rows)
}

func (s *SQLiteStore) GetService(ctx context.Context, id string) (*model.ServiceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteServiceColumns+` FROM services WHERE id = ?`,
		id,
	)
	rec, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get service")
	}
	return rec, nil
}

func (s *SQLiteStore) InsertService(ctx context.Context, rec *model.ServiceRecord) error {
	prepareForInsert(rec)

	provJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal provenance")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO services (`+sqliteServiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Description, rec.Phone, rec.Email, rec.Website,
		rec.Address, rec.Suburb, rec.Postcode, rec.State,
		string(rec.Category), rec.DataSource, rec.ConfidenceScore, string(provJSON),
		boolToInt(rec.IsActive), rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert service %s", rec.Name)
}

func (s *SQLiteStore) UpdateService(ctx context.Context, rec *model.ServiceRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	provJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal provenance")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE services SET name = ?, description = ?, phone = ?, email = ?, website = ?,
		 address = ?, suburb = ?, postcode = ?, state = ?, category = ?,
		 confidence_score = ?, provenance = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Name, rec.Description, rec.Phone, rec.Email, rec.Website,
		rec.Address, rec.Suburb, rec.Postcode, rec.State, string(rec.Category),
		rec.ConfidenceScore, string(provJSON), boolToInt(rec.IsActive), rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update service %s", rec.ID)
	}
	return checkRowsAffected(res, rec.ID)
}

func (s *SQLiteStore) DeactivateService(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deactivate service %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) CountServices(ctx context.Context) (*Counts, error) {
	c := &Counts{BySource: map[string]int{}}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM services`,
	)
	if err := row.Scan(&c.Total, &c.Active); err != nil {
		return nil, eris.Wrap(err, "sqlite: count services")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data_source, COUNT(*) FROM services GROUP BY data_source`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by source")
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source count")
		}
		c.BySource[src] = n
	}
	return c, eris.Wrap(rows.Err(), "sqlite: count iterate")
}

// helpers

// prepareForInsert fills identity and timestamps for a fresh record.
func prepareForInsert(rec *model.ServiceRecord) {
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
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanService(row scannable) (*model.ServiceRecord, error) {
	var rec model.ServiceRecord
	var category, provJSON string
	var isActive int

	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.Phone, &rec.Email, &rec.Website,
		&rec.Address, &rec.Suburb, &rec.Postcode, &rec.State,
		&category, &rec.DataSource, &rec.ConfidenceScore, &provJSON,
		&isActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Category = model.CategoryTag(category)
	rec.IsActive = isActive != 0
	if provJSON != "" && provJSON != "{}" {
		if err := json.Unmarshal([]byte(provJSON), &rec.Provenance); err != nil {
			return nil, eris.Wrap(err, "unmarshal provenance")
		}
	}
	return &rec, nil
}

func collectServices(rows *sql.Rows) ([]model.ServiceRecord, error) {
	var recs []model.ServiceRecord
	for rows.Next() {
		rec, err := scanService(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan service")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "iterate services")
}

// IsConflict reports whether the error is the natural-key unique violation
// raised when two writers race to create the same service.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed")
}
