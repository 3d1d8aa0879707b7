// Package metricsrecorder evaluates the scoring engine against a completed
// render and persists the resulting quality metric, degrading to a bounded
// in-memory ring on persistence failure.
package metricsrecorder

import (
	"time"

	"retentionloop/internal/scoring"
)

// Metric is one append-only render-quality row.
type Metric struct {
	ID              string            `json:"id"`
	JobID           string            `json:"job_id"`
	UserID          *string           `json:"user_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ConfigVersionID string            `json:"config_version_id"`
	ScoreTotal      float64           `json:"score_total"`
	ScoreHook       float64           `json:"score_hook"`
	ScorePacing     float64           `json:"score_pacing"`
	ScoreEmotion    float64           `json:"score_emotion"`
	ScoreVisual     float64           `json:"score_visual"`
	ScoreStory      float64           `json:"score_story"`
	ScoreFiller     float64           `json:"score_filler"`
	ScoreJank       float64           `json:"score_jank"`
	Features        scoring.Features  `json:"features"`
	Flags           scoring.Flags     `json:"flags"`
}

// round4 rounds stored subscores to 4 decimal places.
func round4(v float64) float64 {
	return float64(int64(v*10000+sign(v)*0.5)) / 10000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func fromResult(jobID string, userID *string, configVersionID string, r scoring.Result) Metric {
	return Metric{
		JobID:           jobID,
		UserID:          userID,
		ConfigVersionID: configVersionID,
		ScoreTotal:      r.ScoreTotal,
		ScoreHook:       round4(r.Subscores.Hook),
		ScorePacing:     round4(r.Subscores.Pacing),
		ScoreEmotion:    round4(r.Subscores.Energy),
		ScoreVisual:     round4(r.Subscores.Variety),
		ScoreStory:      round4(r.Subscores.Story),
		ScoreFiller:     round4(r.Subscores.Filler),
		ScoreJank:       round4(r.Subscores.Jank),
		Features:        r.Features,
		Flags:           r.Flags,
	}
}
