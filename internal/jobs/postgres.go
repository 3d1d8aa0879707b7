package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgRepository reads and minimally writes against the externally-owned jobs
// table. It does not create the schema: that table belongs to the render
// pipeline, not this service, so unlike the other internal/*/postgres.go
// stores there is no init() migration here. It assumes columns named
// id, status, user_id, analysis, render_settings, retention_score,
// config_version_id, retention_feedback, completed_at.
type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps pool as a Repository+Lister. It does not
// verify the jobs table exists; a missing table surfaces as a query error
// on first use.
func NewPostgresRepository(pool *pgxpool.Pool) *pgRepository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) scan(row pgx.Row) (Job, error) {
	var j Job
	var analysis, renderSettings, feedback []byte
	if err := row.Scan(&j.ID, &j.Status, &j.UserID, &analysis, &renderSettings,
		&j.RetentionScore, &j.ConfigVersionID, &feedback); err != nil {
		return Job{}, err
	}
	if len(analysis) > 0 {
		_ = json.Unmarshal(analysis, &j.Analysis)
	}
	if len(renderSettings) > 0 {
		_ = json.Unmarshal(renderSettings, &j.RenderSettings)
	}
	if len(feedback) > 0 {
		_ = json.Unmarshal(feedback, &j.RetentionFeedback)
	}
	return j, nil
}

func (r *pgRepository) RepointInFlight(ctx context.Context, newConfigVersionID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE jobs SET config_version_id = $1
WHERE status = ANY($2::text[])`, newConfigVersionID, inFlightStrings())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgRepository) RecentCompleted(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, status, user_id, analysis, render_settings, retention_score, config_version_id, retention_feedback
FROM jobs WHERE status = $1
ORDER BY completed_at DESC LIMIT $2`, string(StatusCompleted), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *pgRepository) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, status, user_id, analysis, render_settings, retention_score, config_version_id, retention_feedback
FROM jobs ORDER BY completed_at DESC NULLS LAST LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *pgRepository) Get(ctx context.Context, id string) (Job, bool) {
	row := r.pool.QueryRow(ctx, `
SELECT id, status, user_id, analysis, render_settings, retention_score, config_version_id, retention_feedback
FROM jobs WHERE id = $1`, id)
	j, err := r.scan(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Job{}, false
		}
		return Job{}, false
	}
	return j, true
}

func (r *pgRepository) collect(rows pgx.Rows) ([]Job, error) {
	out := []Job{}
	for rows.Next() {
		j, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func inFlightStrings() []string {
	out := make([]string, len(InFlightStatuses))
	for i, s := range InFlightStatuses {
		out[i] = string(s)
	}
	return out
}
