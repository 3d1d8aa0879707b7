package experiments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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
CREATE TABLE IF NOT EXISTS experiments (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	arms JSONB NOT NULL,
	allocation JSONB NOT NULL,
	reward_metric TEXT NOT NULL DEFAULT '',
	start_at TIMESTAMPTZ,
	end_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS experiments_status_created_idx ON experiments(status, created_at DESC);
`)
	return err
}

func (s *pgStore) scan(row pgx.Row) (Experiment, error) {
	var e Experiment
	var armsRaw, allocRaw []byte
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.CreatedBy, &e.Name, &e.Status, &armsRaw, &allocRaw, &e.RewardMetric, &e.StartAt, &e.EndAt); err != nil {
		return Experiment{}, err
	}
	if err := json.Unmarshal(armsRaw, &e.Arms); err != nil {
		return Experiment{}, err
	}
	if err := json.Unmarshal(allocRaw, &e.Allocation); err != nil {
		return Experiment{}, err
	}
	return e, nil
}

func (s *pgStore) Insert(ctx context.Context, e Experiment) (Experiment, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	armsRaw, err := json.Marshal(e.Arms)
	if err != nil {
		return Experiment{}, err
	}
	allocRaw, err := json.Marshal(e.Allocation)
	if err != nil {
		return Experiment{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Experiment{}, err
	}
	defer tx.Rollback(ctx)

	if e.Status == StatusRunning {
		if _, err := tx.Exec(ctx, `UPDATE experiments SET status = $1 WHERE status = $2`, StatusStopped, StatusRunning); err != nil {
			return Experiment{}, err
		}
	}

	row := tx.QueryRow(ctx, `
INSERT INTO experiments (id, created_at, created_by, name, status, arms, allocation, reward_metric, start_at, end_at)
VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, created_by, name, status, arms, allocation, reward_metric, start_at, end_at`,
		e.ID, nullTime(e.CreatedAt), e.CreatedBy, e.Name, e.Status, armsRaw, allocRaw, e.RewardMetric, e.StartAt, e.EndAt)

	out, err := s.scan(row)
	if err != nil {
		return Experiment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Experiment{}, err
	}
	return out, nil
}

func (s *pgStore) StopRunning(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `UPDATE experiments SET status = $1 WHERE status = $2 RETURNING id`, StatusStopped, StatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *pgStore) GetRunning(ctx context.Context) (Experiment, bool, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, created_at, created_by, name, status, arms, allocation, reward_metric, start_at, end_at
FROM experiments WHERE status = $1 LIMIT 1`, StatusRunning)
	e, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Experiment{}, false, nil
		}
		return Experiment{}, false, err
	}
	return e, true, nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (Experiment, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, created_at, created_by, name, status, arms, allocation, reward_metric, start_at, end_at
FROM experiments WHERE id = $1`, id)
	e, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Experiment{}, ErrNotFound
		}
		return Experiment{}, err
	}
	return e, nil
}

func (s *pgStore) Update(ctx context.Context, e Experiment) (Experiment, error) {
	allocRaw, err := json.Marshal(e.Allocation)
	if err != nil {
		return Experiment{}, err
	}
	armsRaw, err := json.Marshal(e.Arms)
	if err != nil {
		return Experiment{}, err
	}
	row := s.pool.QueryRow(ctx, `
UPDATE experiments SET status = $2, arms = $3, allocation = $4, reward_metric = $5, start_at = $6, end_at = $7
WHERE id = $1
RETURNING id, created_at, created_by, name, status, arms, allocation, reward_metric, start_at, end_at`,
		e.ID, e.Status, armsRaw, allocRaw, e.RewardMetric, e.StartAt, e.EndAt)
	out, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Experiment{}, ErrNotFound
		}
		return Experiment{}, err
	}
	return out, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
