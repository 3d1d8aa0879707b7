package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retentionloop/internal/params"
)

// pgStore is the authoritative backend when a Postgres DSN is configured,
// grounded on chat_store_postgres.go's transactional update pattern.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Postgres-backed Store and ensures its schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	s := &pgStore{pool: pool}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *pgStore) init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS config_versions (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by TEXT NOT NULL DEFAULT '',
	preset_name TEXT NOT NULL DEFAULT '',
	params JSONB NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS config_versions_created_idx ON config_versions(created_at DESC);
CREATE INDEX IF NOT EXISTS config_versions_active_created_idx ON config_versions(is_active, created_at DESC);
`)
	return err
}

func (s *pgStore) scan(row pgx.Row) (Version, error) {
	var v Version
	var raw []byte
	if err := row.Scan(&v.ID, &v.CreatedAt, &v.CreatedBy, &v.PresetName, &raw, &v.IsActive, &v.Note); err != nil {
		return Version{}, err
	}
	var p params.P
	if err := json.Unmarshal(raw, &p); err != nil {
		return Version{}, err
	}
	v.Params = p
	return v, nil
}

func (s *pgStore) Insert(ctx context.Context, v Version) (Version, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	raw, err := json.Marshal(v.Params)
	if err != nil {
		return Version{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Version{}, err
	}
	defer tx.Rollback(ctx)

	if v.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE config_versions SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
			return Version{}, err
		}
	}

	row := tx.QueryRow(ctx, `
INSERT INTO config_versions (id, created_at, created_by, preset_name, params, is_active, note)
VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6, $7)
RETURNING id, created_at, created_by, preset_name, params, is_active, note`,
		v.ID, nullTime(v.CreatedAt), v.CreatedBy, v.PresetName, raw, v.IsActive, v.Note)

	out, err := s.scan(row)
	if err != nil {
		return Version{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Version{}, err
	}
	return out, nil
}

func (s *pgStore) Activate(ctx context.Context, id string) (Version, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Version{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT 1 FROM config_versions WHERE id = $1`, id)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Version{}, ErrNotFound
		}
		return Version{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE config_versions SET is_active = FALSE WHERE is_active = TRUE AND id != $1`, id); err != nil {
		return Version{}, err
	}
	outRow := tx.QueryRow(ctx, `
UPDATE config_versions SET is_active = TRUE WHERE id = $1
RETURNING id, created_at, created_by, preset_name, params, is_active, note`, id)
	out, err := s.scan(outRow)
	if err != nil {
		return Version{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Version{}, err
	}
	return out, nil
}

func (s *pgStore) GetActive(ctx context.Context) (Version, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, created_at, created_by, preset_name, params, is_active, note
FROM config_versions WHERE is_active = TRUE LIMIT 1`)
	v, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Version{}, false, nil
		}
		return Version{}, false, err
	}
	return v, true, nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (Version, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, created_at, created_by, preset_name, params, is_active, note
FROM config_versions WHERE id = $1`, id)
	v, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Version{}, ErrNotFound
		}
		return Version{}, err
	}
	return v, nil
}

func (s *pgStore) List(ctx context.Context, limit int) ([]Version, error) {
	limit = clampListLimit(limit)
	rows, err := s.pool.Query(ctx, `
SELECT id, created_at, created_by, preset_name, params, is_active, note
FROM config_versions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		v, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *pgStore) PromoteNewest(ctx context.Context) (Version, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Version{}, false, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT id FROM config_versions ORDER BY created_at DESC LIMIT 1`)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Version{}, false, nil
		}
		return Version{}, false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE config_versions SET is_active = FALSE WHERE is_active = TRUE AND id != $1`, id); err != nil {
		return Version{}, false, err
	}
	outRow := tx.QueryRow(ctx, `
UPDATE config_versions SET is_active = TRUE WHERE id = $1
RETURNING id, created_at, created_by, preset_name, params, is_active, note`, id)
	out, err := s.scan(outRow)
	if err != nil {
		return Version{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Version{}, false, err
	}
	return out, true, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
