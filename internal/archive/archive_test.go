package archive

import (
	"context"
	"errors"
	"testing"
	"time"
)

type brainSnapshotStub struct {
	AvgOutcome float64 `json:"avg_outcome"`
}

func TestRecordAndGetRoundTrip(t *testing.T) {
	a := NewArchiver(NewMemoryStore()).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	key, err := a.Record(context.Background(), TriggerFeedbackApplied, brainSnapshotStub{AvgOutcome: 0.61})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if key == "" {
		t.Fatal("expected non-empty key")
	}

	var got brainSnapshotStub
	if err := a.Get(context.Background(), key, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AvgOutcome != 0.61 {
		t.Errorf("AvgOutcome = %v, want 0.61", got.AvgOutcome)
	}
}

func TestRecordKeyEncodesTrigger(t *testing.T) {
	a := NewArchiver(NewMemoryStore())
	key, err := a.Record(context.Background(), TriggerAnalysisReport, map[string]string{"x": "y"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !hasSuffix(key, "_analysis_report.json") {
		t.Errorf("key %q does not encode trigger analysis_report", key)
	}
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	a := NewArchiver(NewMemoryStore())
	var dst map[string]string
	err := a.Get(context.Background(), "does-not-exist.json", &dst)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListByTriggerFiltersAndOrdersNewestFirst(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	a := NewArchiver(NewMemoryStore()).WithClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	})
	ctx := context.Background()
	if _, err := a.Record(ctx, TriggerConfigActivated, map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Record(ctx, TriggerFeedbackApplied, map[string]int{"n": 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Record(ctx, TriggerConfigActivated, map[string]int{"n": 3}); err != nil {
		t.Fatal(err)
	}

	keys, err := a.ListByTrigger(ctx, TriggerConfigActivated)
	if err != nil {
		t.Fatalf("ListByTrigger: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	if !hasPrefix(keys[0], "2026-01-03") {
		t.Errorf("keys[0] = %q, want newest first (2026-01-03)", keys[0])
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
