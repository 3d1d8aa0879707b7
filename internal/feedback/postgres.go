package feedback

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is the authoritative single-row backend, grounded on
// configstore's transactional-upsert pattern.
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
CREATE TABLE IF NOT EXISTS feedback_loop_state (
	id TEXT PRIMARY KEY,
	settings JSONB NOT NULL,
	runtime JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	return err
}

func (s *pgStore) Get(ctx context.Context) (State, error) {
	row := s.pool.QueryRow(ctx, `SELECT settings, runtime FROM feedback_loop_state WHERE id = $1`, stateRowID)
	var settingsRaw, runtimeRaw []byte
	if err := row.Scan(&settingsRaw, &runtimeRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{Settings: DefaultSettings()}, nil
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(settingsRaw, &st.Settings); err != nil {
		return State{}, err
	}
	if err := json.Unmarshal(runtimeRaw, &st.Runtime); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *pgStore) Put(ctx context.Context, st State) error {
	settingsRaw, err := json.Marshal(st.Settings)
	if err != nil {
		return err
	}
	runtimeRaw, err := json.Marshal(st.Runtime)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO feedback_loop_state (id, settings, runtime, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE SET settings = $2, runtime = $3, updated_at = NOW()`,
		stateRowID, settingsRaw, runtimeRaw)
	return err
}
