package metricsrecorder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
)

// ClickHouseMirror is an append-only analytics sink, a secondary copy of the
// Postgres-authoritative row. It is not part of Recorder.Record; Mirror
// returns write errors to its caller.
type ClickHouseMirror struct {
	conn driver.Conn
}

// ClickHouseConfig configures DialClickHouse.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// DialClickHouse connects and ensures the analytics mirror table exists.
func DialClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseMirror, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	m := &ClickHouseMirror{conn: conn}
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ClickHouseMirror) init(ctx context.Context) error {
	return m.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS render_quality_metrics_analytics (
	id String,
	job_id String,
	config_version_id String,
	created_at DateTime,
	score_total Float64,
	score_hook Float64,
	score_pacing Float64,
	score_emotion Float64,
	score_visual Float64,
	score_story Float64,
	score_filler Float64,
	score_jank Float64,
	features String
) ENGINE = MergeTree()
ORDER BY (config_version_id, created_at)
`)
}

// Mirror writes m into the analytics table.
func (c *ClickHouseMirror) Mirror(ctx context.Context, m Metric) error {
	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	features, err := json.Marshal(m.Features)
	if err != nil {
		return err
	}
	return c.conn.Exec(ctx, `
INSERT INTO render_quality_metrics_analytics
	(id, job_id, config_version_id, created_at, score_total, score_hook, score_pacing,
	 score_emotion, score_visual, score_story, score_filler, score_jank, features)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.JobID, m.ConfigVersionID, createdAt, m.ScoreTotal, m.ScoreHook, m.ScorePacing,
		m.ScoreEmotion, m.ScoreVisual, m.ScoreStory, m.ScoreFiller, m.ScoreJank, string(features))
}

// AggregateScoreRange computes avg/stdev/n for config_version_id over
// [from, to] from the analytics table.
func (c *ClickHouseMirror) AggregateScoreRange(ctx context.Context, configVersionID string, from, to time.Time) (avg, stdev float64, n int, err error) {
	row := c.conn.QueryRow(ctx, `
SELECT avg(score_total), stddevPop(score_total), count()
FROM render_quality_metrics_analytics
WHERE config_version_id = ? AND created_at >= ? AND created_at <= ?`,
		configVersionID, from, to)
	if err := row.Scan(&avg, &stdev, &n); err != nil {
		return 0, 0, 0, err
	}
	return avg, stdev, n, nil
}
