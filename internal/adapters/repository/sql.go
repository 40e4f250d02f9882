package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/peloton/internal/domain/model"
)

// dialect captures the few statements that differ between engines.
type dialect struct {
	name   string
	driver string
	schema string
	load   string
	save   string
}

var sqliteDialect = dialect{
	name:   BackendSQLite,
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS rosters (
	storage_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
)`,
	load: `SELECT payload FROM rosters WHERE storage_key = ?`,
	save: `INSERT INTO rosters (storage_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (storage_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
}

var postgresDialect = dialect{
	name:   BackendPostgres,
	driver: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS rosters (
	storage_key TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`,
	load: `SELECT payload FROM rosters WHERE storage_key = $1`,
	save: `INSERT INTO rosters (storage_key, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (storage_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
}

// SQL stores one row per key in a "rosters" table.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (and creates) the sqlite database at path.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect)
}

// NewPostgres connects to postgres using dsn.
func NewPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQL(ctx, db, postgresDialect)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", d.name, err)
	}
	return &SQL{db: db, dialect: d}, nil
}

// Load implements roster.Repository.
func (s *SQL) Load(ctx context.Context, key string) (rosters []model.Roster, found bool, err error) {
	defer func(start time.Time) { observe(s.dialect.name, "load", start, err) }(time.Now())
	var payload []byte
	err = s.db.QueryRowContext(ctx, s.dialect.load, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	rosters, err = decode(key, payload)
	if err != nil {
		return nil, false, err
	}
	return rosters, true, nil
}

// Save implements roster.Repository.
func (s *SQL) Save(ctx context.Context, key string, rosters []model.Roster) (err error) {
	defer func(start time.Time) { observe(s.dialect.name, "save", start, err) }(time.Now())
	body, err := encode(rosters)
	if err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, s.dialect.save, key, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQL) Close() error { return s.db.Close() }
