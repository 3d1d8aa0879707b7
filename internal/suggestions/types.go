// Package suggestions implements analyze(limit, range): correlate recent
// render-quality outcomes against the parameters that produced them and
// propose parameter deltas likely to raise score_total.
package suggestions

import (
	"time"

	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/params"
)

// Row pairs one persisted metric with the params of the config version that
// produced it.
type Row struct {
	Metric metricsrecorder.Metric
	Params params.P
}

// Summary reports per-subscore averages and failure counts over the
// analyzed window.
type Summary struct {
	N              int     `json:"n"`
	AvgScoreTotal  float64 `json:"avg_score_total"`
	ScoreStdev     float64 `json:"score_stdev"`
	AvgHook        float64 `json:"avg_hook"`
	AvgPacing      float64 `json:"avg_pacing"`
	AvgEmotion     float64 `json:"avg_emotion"`
	AvgVisual      float64 `json:"avg_visual"`
	AvgStory       float64 `json:"avg_story"`
	AvgFiller      float64 `json:"avg_filler"`
	AvgJank        float64 `json:"avg_jank"`
	HookFailures   int     `json:"hook_failures"`
	PacingFailures int     `json:"pacing_failures"`
	JankFailures   int     `json:"jank_failures"`
	StoryFailures  int     `json:"story_failures"`
}

// Correlation is one param's Pearson r against score_total, plus the inputs
// needed to scale a proposed delta against it.
type Correlation struct {
	Param string  `json:"param"`
	R     float64 `json:"r"`
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
	N     int     `json:"n"`
}

// Suggestion is one candidate parameter change (or a synthetic rollback).
type Suggestion struct {
	Type                string             `json:"type"` // "param_delta" or "rollback_to_config_version"
	Changes             map[string]float64 `json:"changes,omitempty"`
	TargetConfigVersion string             `json:"target_config_version,omitempty"`
	PredictedDeltaScore float64            `json:"predicted_delta_score"`
	Confidence          float64            `json:"confidence"`
	Risk                string             `json:"risk"`
	Reason              string             `json:"reason"`
}

// Report is analyze()'s full return value.
type Report struct {
	Summary      Summary       `json:"summary"`
	Correlations []Correlation `json:"correlations"`
	Suggestions  []Suggestion  `json:"suggestions"`
}

// Range bounds the analyzed window; a zero Since means "no lower bound".
type Range struct {
	Since time.Time
	Until time.Time
}
