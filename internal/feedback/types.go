// Package feedback implements run(trigger, forceApply): turn recent
// completed-job outcomes into a brain snapshot and, when eligible, apply a
// scaled parameter delta through the config-version store.
package feedback

import "time"

// Settings are FeedbackLoopState's tunables, all clamped to documented
// ranges.
type Settings struct {
	Enabled         bool    `json:"enabled"`
	AutoApply       bool    `json:"auto_apply"`
	MinSamples      int     `json:"min_samples"`
	LookbackLimit   int     `json:"lookback_limit"`
	CooldownMinutes int     `json:"cooldown_minutes"`
	MinConfidence   float64 `json:"min_confidence"`
	MinDeltaScore   float64 `json:"min_delta_score"`
}

// DefaultSettings match the documented ranges' conservative middle.
func DefaultSettings() Settings {
	return Settings{
		Enabled:         true,
		AutoApply:       false,
		MinSamples:      20,
		LookbackLimit:   200,
		CooldownMinutes: 360,
		MinConfidence:   0.55,
		MinDeltaScore:   0.03,
	}
}

// Clamp bounds every setting to its documented range.
func (s Settings) Clamp() Settings {
	s.MinSamples = clampInt(s.MinSamples, 1, 5000)
	s.LookbackLimit = clampInt(s.LookbackLimit, 1, 5000)
	s.CooldownMinutes = clampInt(s.CooldownMinutes, 0, 10080)
	s.MinConfidence = clampFloat(s.MinConfidence, 0, 1)
	s.MinDeltaScore = clampFloat(s.MinDeltaScore, 0, 0.18)
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Runtime is FeedbackLoopState's last-observed outcome, updated on every
// run() regardless of apply outcome.
type Runtime struct {
	LastRunAt          *time.Time `json:"last_run_at,omitempty"`
	LastRunTrigger     string     `json:"last_run_trigger,omitempty"`
	LastRunReason      string     `json:"last_run_reason,omitempty"`
	LastAppliedAt      *time.Time `json:"last_applied_at,omitempty"`
	LastAppliedNote    string     `json:"last_applied_note,omitempty"`
	LastAppliedConfig  string     `json:"last_applied_config,omitempty"`
	LastAppliedConf    float64    `json:"last_applied_confidence,omitempty"`
	LastAppliedDelta   float64    `json:"last_applied_delta,omitempty"`
}

// State is the singleton FeedbackLoopState row, keyed "global".
type State struct {
	Settings Settings `json:"settings"`
	Runtime  Runtime  `json:"runtime"`
}

// Outcome is one sample's normalized retention-feedback outcome.
type Outcome struct {
	JobID      string
	Value      float64
	HookHold   *float64
	Completion *float64
	EditorMode string
	Strategy   string
	Platform   string
}

// Snapshot is the brain_snapshot built each run.
type Snapshot struct {
	SampleSize         int                `json:"sample_size"`
	AvgOutcome         float64            `json:"avg_outcome"`
	AvgHookHold        float64            `json:"avg_hook_hold"`
	AvgCompletion      float64            `json:"avg_completion"`
	AvgJank            float64            `json:"avg_jank"`
	PlatformShare      map[string]float64 `json:"platform_share"`
	ByEditorMode       map[string]float64 `json:"by_editor_mode"`
	ByStrategy         map[string]float64 `json:"by_strategy"`
	ByPlatform         map[string]float64 `json:"by_platform"`
	TopEditorMode      string             `json:"top_editor_mode,omitempty"`
	TopEditorModeMargin float64           `json:"top_editor_mode_margin"`
	Confidence         float64            `json:"confidence"`
	ProposedDeltas     map[string]float64 `json:"proposed_deltas"`
	PredictedUplift    float64            `json:"predicted_uplift"`
}

// Result is run()'s return value.
type Result struct {
	Status   string   `json:"status"` // "applied" or "skipped"
	Reason   string   `json:"reason,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
	AppliedConfigVersionID string `json:"applied_config_version_id,omitempty"`
}
