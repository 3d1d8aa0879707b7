package feedback

import (
	"context"
	"testing"
	"time"

	"retentionloop/internal/configstore"
	"retentionloop/internal/jobs"
	"retentionloop/internal/metricsrecorder"
)

type fakeJobsRepo struct{ jobs []jobs.Job }

func (f fakeJobsRepo) RepointInFlight(ctx context.Context, newConfigVersionID string) (int, error) {
	return 0, nil
}

func (f fakeJobsRepo) RecentCompleted(ctx context.Context, limit int) ([]jobs.Job, error) {
	if limit > 0 && limit < len(f.jobs) {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}

type fakeMetricSource struct{ jank float64 }

func (f fakeMetricSource) ListRecent(ctx context.Context, limit int) ([]metricsrecorder.Metric, error) {
	return []metricsrecorder.Metric{{ScoreJank: f.jank}}, nil
}

func lowOutcomeJob(id string) jobs.Job {
	return jobs.Job{
		ID:     id,
		Status: jobs.StatusCompleted,
		RetentionFeedback: map[string]any{
			"watch_percent":        40.0,
			"hook_hold_percent":    35.0,
			"completion_percent":   30.0,
			"ctr":                  0.2,
			"manual_score":         0.4,
			"first_30s_retention":  0.3,
			"model_retention":      0.35,
			"editor_mode":          "fast_cuts",
		},
	}
}

func newTestEngine(t *testing.T, jobsList []jobs.Job, jank float64) *Engine {
	t.Helper()
	store := configstore.NewMemoryStore()
	svc := configstore.NewService(store, nil)
	if _, err := svc.EnsureDefault(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewEngine(NewMemoryStore(), fakeJobsRepo{jobs: jobsList}, fakeMetricSource{jank: jank}, svc)
}

func TestRunSkipsWhenDisabled(t *testing.T) {
	e := newTestEngine(t, nil, 0.2)
	st, _ := e.GetState(context.Background())
	st.Settings.Enabled = false
	e.store.Put(context.Background(), st)
	result, err := e.Run(context.Background(), "manual", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "skipped" {
		t.Errorf("Status = %s, want skipped", result.Status)
	}
	if result.Reason != "feedback_loop_disabled" {
		t.Errorf("Reason = %s, want feedback_loop_disabled", result.Reason)
	}
}

func TestRunSkipsWithInsufficientSamples(t *testing.T) {
	e := newTestEngine(t, nil, 0.2)
	st, _ := e.GetState(context.Background())
	st.Settings.Enabled = true
	st.Settings.AutoApply = true
	st.Settings.MinSamples = 5
	e.store.Put(context.Background(), st)

	result, err := e.Run(context.Background(), "manual", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "skipped" || result.Reason != "insufficient_sample_size" {
		t.Errorf("got status=%s reason=%s, want skipped/insufficient_sample_size", result.Status, result.Reason)
	}
}

func TestRunAppliesWhenForceApplyBypassesGates(t *testing.T) {
	var jobsList []jobs.Job
	for i := 0; i < 10; i++ {
		jobsList = append(jobsList, lowOutcomeJob(string(rune('a'+i))))
	}
	e := newTestEngine(t, jobsList, 0.8)
	st, _ := e.GetState(context.Background())
	st.Settings.Enabled = false
	st.Settings.AutoApply = false
	st.Settings.MinSamples = 5
	st.Settings.MinConfidence = 0
	st.Settings.MinDeltaScore = 0
	e.store.Put(context.Background(), st)

	result, err := e.Run(context.Background(), "manual", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "applied" {
		t.Fatalf("Status = %s, reason=%s, want applied", result.Status, result.Reason)
	}
	if result.AppliedConfigVersionID == "" {
		t.Error("expected a config version id on apply")
	}
}

func TestRunForceApplyStillRespectsConfidenceGate(t *testing.T) {
	var jobsList []jobs.Job
	for i := 0; i < 10; i++ {
		jobsList = append(jobsList, lowOutcomeJob(string(rune('a'+i))))
	}
	e := newTestEngine(t, jobsList, 0.2)
	st, _ := e.GetState(context.Background())
	st.Settings.MinSamples = 5
	st.Settings.MinConfidence = 0.999
	e.store.Put(context.Background(), st)

	result, err := e.Run(context.Background(), "manual", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "skipped" || result.Reason != "confidence_below_threshold" {
		t.Errorf("got status=%s reason=%s, want skipped/confidence_below_threshold", result.Status, result.Reason)
	}
}

func TestRunPersistsRuntimeEvenWhenSkipped(t *testing.T) {
	e := newTestEngine(t, nil, 0.2)
	_, err := e.Run(context.Background(), "ticker", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, err := e.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Runtime.LastRunAt == nil {
		t.Error("expected LastRunAt to be set even on skip")
	}
	if st.Runtime.LastRunTrigger != "ticker" {
		t.Errorf("LastRunTrigger = %s, want ticker", st.Runtime.LastRunTrigger)
	}
}

func TestCoalescesOverlappingTriggers(t *testing.T) {
	var jobsList []jobs.Job
	for i := 0; i < 10; i++ {
		jobsList = append(jobsList, lowOutcomeJob(string(rune('a'+i))))
	}
	e := newTestEngine(t, jobsList, 0.2)

	done := make(chan struct{}, 2)
	go func() {
		e.Run(context.Background(), "manual", false)
		done <- struct{}{}
	}()
	go func() {
		e.Run(context.Background(), "manual", false)
		done <- struct{}{}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for coalesced runs")
	}
	<-done
}
