package metricsrecorder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is the authoritative sink for render_quality_metrics, grounded on
// configstore's transactional-insert pattern.
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
CREATE TABLE IF NOT EXISTS render_quality_metrics (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL,
	user_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	config_version_id UUID NOT NULL,
	score_total DOUBLE PRECISION NOT NULL,
	score_hook DOUBLE PRECISION NOT NULL,
	score_pacing DOUBLE PRECISION NOT NULL,
	score_emotion DOUBLE PRECISION NOT NULL,
	score_visual DOUBLE PRECISION NOT NULL,
	score_story DOUBLE PRECISION NOT NULL,
	score_filler DOUBLE PRECISION NOT NULL,
	score_jank DOUBLE PRECISION NOT NULL,
	features JSONB NOT NULL,
	flags JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS render_quality_metrics_created_idx ON render_quality_metrics(created_at DESC);
CREATE INDEX IF NOT EXISTS render_quality_metrics_version_created_idx ON render_quality_metrics(config_version_id, created_at DESC);
`)
	return err
}

func (s *pgStore) Insert(ctx context.Context, m Metric) (Metric, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	features, err := json.Marshal(m.Features)
	if err != nil {
		return Metric{}, err
	}
	flags, err := json.Marshal(m.Flags)
	if err != nil {
		return Metric{}, err
	}

	row := s.pool.QueryRow(ctx, `
INSERT INTO render_quality_metrics
	(id, job_id, user_id, created_at, config_version_id, score_total, score_hook,
	 score_pacing, score_emotion, score_visual, score_story, score_filler, score_jank,
	 features, flags)
VALUES ($1, $2, $3, COALESCE($4, NOW()), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, created_at`,
		m.ID, m.JobID, m.UserID, nullTime(m.CreatedAt), m.ConfigVersionID, m.ScoreTotal,
		m.ScoreHook, m.ScorePacing, m.ScoreEmotion, m.ScoreVisual, m.ScoreStory, m.ScoreFiller,
		m.ScoreJank, features, flags)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return Metric{}, err
	}
	return m, nil
}

func (s *pgStore) ListRecent(ctx context.Context, limit int) ([]Metric, error) {
	if limit <= 0 || limit > ringCapacity {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, job_id, user_id, created_at, config_version_id, score_total, score_hook,
       score_pacing, score_emotion, score_visual, score_story, score_filler, score_jank,
       features, flags
FROM render_quality_metrics ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Metric{}
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMetric(row pgx.Row) (Metric, error) {
	var m Metric
	var features, flags []byte
	if err := row.Scan(&m.ID, &m.JobID, &m.UserID, &m.CreatedAt, &m.ConfigVersionID, &m.ScoreTotal,
		&m.ScoreHook, &m.ScorePacing, &m.ScoreEmotion, &m.ScoreVisual, &m.ScoreStory, &m.ScoreFiller,
		&m.ScoreJank, &features, &flags); err != nil {
		return Metric{}, err
	}
	if err := json.Unmarshal(features, &m.Features); err != nil {
		return Metric{}, err
	}
	if err := json.Unmarshal(flags, &m.Flags); err != nil {
		return Metric{}, err
	}
	return m, nil
}

func (s *pgStore) AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (float64, float64, int, error) {
	row := s.pool.QueryRow(ctx, `
SELECT COALESCE(AVG(score_total), 0), COALESCE(STDDEV_POP(score_total), 0), COUNT(*)
FROM render_quality_metrics
WHERE config_version_id = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)`,
		configVersionID, nullTime(from), nullTime(to))

	var avg, stdev float64
	var n int
	if err := row.Scan(&avg, &stdev, &n); err != nil {
		return 0, 0, 0, err
	}
	return avg, stdev, n, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
