package feedback

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"retentionloop/internal/configstore"
	"retentionloop/internal/jobs"
	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/params"
)

// MetricSource supplies recent render-quality metrics for the jank-deficit
// signal, independent of which config version produced them.
type MetricSource interface {
	ListRecent(ctx context.Context, limit int) ([]metricsrecorder.Metric, error)
}

// Engine implements run(trigger, forceApply), serialized by a singleflight
// group so overlapping triggers coalesce onto one in-flight execution.
type Engine struct {
	store   Store
	jobs    jobs.Repository
	metrics MetricSource
	configs *configstore.Service

	group singleflight.Group
	now   func() time.Time
}

// NewEngine builds an Engine over the given collaborators.
func NewEngine(store Store, jobsRepo jobs.Repository, metrics MetricSource, configs *configstore.Service) *Engine {
	return &Engine{store: store, jobs: jobsRepo, metrics: metrics, configs: configs, now: time.Now}
}

// WithClock overrides the clock, for reproducible tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// GetState returns the current singleton state.
func (e *Engine) GetState(ctx context.Context) (State, error) {
	return e.store.Get(ctx)
}

// PutSettings updates the singleton's settings, clamped to documented
// ranges.
func (e *Engine) PutSettings(ctx context.Context, s Settings) (State, error) {
	st, err := e.store.Get(ctx)
	if err != nil {
		return State{}, err
	}
	st.Settings = s.Clamp()
	if err := e.store.Put(ctx, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Run coalesces concurrent calls sharing the same trigger onto one
// execution via singleflight, then runs the full pipeline once.
func (e *Engine) Run(ctx context.Context, trigger string, forceApply bool) (Result, error) {
	key := trigger
	if forceApply {
		key = trigger + ":force"
	}
	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.run(ctx, trigger, forceApply)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (e *Engine) run(ctx context.Context, trigger string, forceApply bool) (Result, error) {
	state, err := e.store.Get(ctx)
	if err != nil {
		return Result{}, err
	}
	settings := state.Settings.Clamp()

	now := e.now()
	state.Runtime.LastRunAt = &now
	state.Runtime.LastRunTrigger = trigger

	completed, err := e.jobs.RecentCompleted(ctx, settings.LookbackLimit)
	if err != nil {
		return Result{}, err
	}

	var outcomes []Outcome
	for _, job := range completed {
		if o, ok := extractOutcome(job); ok {
			outcomes = append(outcomes, o)
		}
	}

	avgJank, err := e.recentAvgJank(ctx, settings.LookbackLimit)
	if err != nil {
		return Result{}, err
	}

	snapshot := buildSnapshot(outcomes, avgJank)

	result := Result{Snapshot: snapshot}

	reason, eligible := e.checkEligibility(settings, snapshot, state.Runtime, forceApply, now)
	if !eligible {
		result.Status = "skipped"
		result.Reason = reason
		state.Runtime.LastRunReason = reason
		if err := e.store.Put(ctx, state); err != nil {
			return Result{}, err
		}
		return result, nil
	}

	active, err := e.configs.GetActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("algorithm_config_unavailable: %w", err)
	}

	scale := clampFloat(0.42+snapshot.Confidence*0.64, 0.42, 1)
	newParams := active.Params
	for key, delta := range snapshot.ProposedDeltas {
		current, ok := params.Get(&newParams, key)
		if !ok {
			continue
		}
		params.Set(&newParams, key, current+delta*scale)
	}
	if snapshot.TopEditorMode != "" {
		newParams.SubtitleStyleMode = snapshot.TopEditorMode
	}

	note := fmt.Sprintf("feedback_loop: trigger=%s sample_size=%d confidence=%.3f predicted_uplift=%.4f",
		trigger, snapshot.SampleSize, snapshot.Confidence, snapshot.PredictedUplift)

	created, err := e.configs.Create(ctx, configstore.CreateOptions{
		Params:    newParams,
		Activate:  true,
		CreatedBy: "feedback_loop",
		Note:      note,
	})
	if err != nil {
		return Result{}, err
	}

	result.Status = "applied"
	result.AppliedConfigVersionID = created.ID

	state.Runtime.LastRunReason = "applied"
	state.Runtime.LastAppliedAt = &now
	state.Runtime.LastAppliedNote = note
	state.Runtime.LastAppliedConfig = created.ID
	state.Runtime.LastAppliedConf = snapshot.Confidence
	state.Runtime.LastAppliedDelta = snapshot.PredictedUplift

	if err := e.store.Put(ctx, state); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (e *Engine) recentAvgJank(ctx context.Context, limit int) (float64, error) {
	metrics, err := e.metrics.ListRecent(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(metrics) == 0 {
		return 0, nil
	}
	var sum float64
	for _, m := range metrics {
		sum += m.ScoreJank
	}
	return sum / float64(len(metrics)), nil
}

// checkEligibility decides whether a run's proposed change may be applied.
// forceApply bypasses enabled/auto_apply/cooldown but not sample size,
// confidence, or delta.
func (e *Engine) checkEligibility(settings Settings, snap Snapshot, runtime Runtime, forceApply bool, now time.Time) (string, bool) {
	if !forceApply {
		if !settings.Enabled {
			return "feedback_loop_disabled", false
		}
		if !settings.AutoApply {
			return "auto_apply_disabled", false
		}
		if runtime.LastAppliedAt != nil {
			elapsed := now.Sub(*runtime.LastAppliedAt)
			if elapsed < time.Duration(settings.CooldownMinutes)*time.Minute {
				return "cooldown_not_elapsed", false
			}
		}
	}
	if snap.SampleSize < settings.MinSamples {
		return "insufficient_sample_size", false
	}
	if snap.Confidence < settings.MinConfidence {
		return "confidence_below_threshold", false
	}
	if snap.PredictedUplift < settings.MinDeltaScore {
		return "predicted_delta_below_threshold", false
	}
	if len(snap.ProposedDeltas) == 0 {
		return "no_optimization_suggestion", false
	}
	return "", true
}
