// Package experiments implements the multi-arm config-version allocator:
// starting/stopping experiments, status aggregation, and weighted random
// selection for new jobs.
package experiments

import (
	"errors"
	"time"
)

// Status is the experiment lifecycle state.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// Arm is one config version enrolled in an experiment with a non-negative
// allocation weight.
type Arm struct {
	ConfigVersionID string  `json:"config_version_id"`
	Weight          float64 `json:"weight"`
}

// Experiment is one multi-arm allocation run.
type Experiment struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	CreatedBy     string         `json:"created_by,omitempty"`
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	Arms          []Arm          `json:"arms"`
	Allocation    map[string]float64 `json:"allocation"`
	RewardMetric  string         `json:"reward_metric"`
	StartAt       *time.Time     `json:"start_at,omitempty"`
	EndAt         *time.Time     `json:"end_at,omitempty"`
}

// IsRunningAt reports whether the experiment is the active one at t: status
// must be running and t must fall in [start_at, end_at] (open-ended on
// either side).
func (e Experiment) IsRunningAt(t time.Time) bool {
	if e.Status != StatusRunning {
		return false
	}
	if e.StartAt != nil && t.Before(*e.StartAt) {
		return false
	}
	if e.EndAt != nil && t.After(*e.EndAt) {
		return false
	}
	return true
}

// ArmOutcome is the aggregated result for one arm over the experiment
// window.
type ArmOutcome struct {
	ConfigVersionID string  `json:"config_version_id"`
	AvgScore        float64 `json:"avg_score"`
	Stdev           float64 `json:"stdev"`
	SampleSize      int     `json:"sample_size"`
	Confidence      float64 `json:"confidence"`
}

// StatusReport is the result of Allocator.Status.
type StatusReport struct {
	Experiment   Experiment   `json:"experiment"`
	Arms         []ArmOutcome `json:"arms"`
	WinnerArmID  string       `json:"winner_config_version_id,omitempty"`
	WinnerReady  bool         `json:"winner_ready"`
}

// Validation errors, as deterministic codes.
var (
	ErrInvalidArmCount = errors.New("experiment_requires_2_to_4_valid_arms")
	ErrNotFound        = errors.New("experiment_not_found")
)

// ErrInvalidConfigVersion wraps an unresolved arm's config-version id.
type ErrInvalidConfigVersion struct {
	ID string
}

func (e *ErrInvalidConfigVersion) Error() string {
	return "invalid_config_version:" + e.ID
}
