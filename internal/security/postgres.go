package security

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is the authoritative append-only sink for security_events,
// grounded on metricsrecorder's pgStore pattern.
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
CREATE TABLE IF NOT EXISTS security_events (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	type TEXT NOT NULL,
	meta JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS security_events_created_idx ON security_events(created_at DESC);
`)
	return err
}

func (s *pgStore) Insert(ctx context.Context, e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return Event{}, err
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO security_events (id, created_at, type, meta)
VALUES ($1, COALESCE($2, NOW()), $3, $4)
RETURNING id, created_at`, e.ID, nullTime(e.CreatedAt), e.Type, meta)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (s *pgStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > ringCapacity {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, created_at, type, meta FROM security_events
ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var meta []byte
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Type, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
