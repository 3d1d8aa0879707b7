package experiments

import (
	"context"
	"testing"
	"time"
)

type fakeResolver struct{ known map[string]bool }

func (f fakeResolver) Exists(ctx context.Context, id string) (bool, error) {
	return f.known[id], nil
}

type fakeMetrics struct{}

func (fakeMetrics) AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (float64, float64, int, error) {
	return 70, 5, 10, nil
}

type fakeActive struct{ id string }

func (f fakeActive) GetActiveID(ctx context.Context) (string, error) { return f.id, nil }

func TestStartRejectsWrongArmCount(t *testing.T) {
	a := NewAllocator(NewMemoryStore(), fakeResolver{known: map[string]bool{"a": true}}, fakeMetrics{}, fakeActive{id: "active"})
	_, err := a.Start(context.Background(), StartOptions{
		Name: "x",
		Arms: []Arm{{ConfigVersionID: "a", Weight: 1}},
	})
	if err != ErrInvalidArmCount {
		t.Errorf("err = %v, want ErrInvalidArmCount", err)
	}
}

func TestStartRejectsUnknownArm(t *testing.T) {
	a := NewAllocator(NewMemoryStore(), fakeResolver{known: map[string]bool{"a": true}}, fakeMetrics{}, fakeActive{id: "active"})
	_, err := a.Start(context.Background(), StartOptions{
		Name: "x",
		Arms: []Arm{{ConfigVersionID: "a", Weight: 1}, {ConfigVersionID: "b", Weight: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unknown arm")
	}
}

func TestE4AllZeroAllocationOnOneArmAlwaysSelectsOther(t *testing.T) {
	resolver := fakeResolver{known: map[string]bool{"A": true, "B": true}}
	alloc := NewAllocator(NewMemoryStore(), resolver, fakeMetrics{}, fakeActive{id: "active"}).WithRNG(func() float64 { return 0.999 })

	_, err := alloc.Start(context.Background(), StartOptions{
		Name:       "ab-test",
		Arms:       []Arm{{ConfigVersionID: "A", Weight: 0}, {ConfigVersionID: "B", Weight: 100}},
		Allocation: map[string]float64{"A": 0, "B": 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 1000; i++ {
		id, err := alloc.SelectForNewJob(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "B" {
			t.Fatalf("SelectForNewJob() = %s, want B", id)
		}
	}
}

func TestStartingOneExperimentStopsAnother(t *testing.T) {
	resolver := fakeResolver{known: map[string]bool{"A": true, "B": true, "C": true, "D": true}}
	store := NewMemoryStore()
	alloc := NewAllocator(store, resolver, fakeMetrics{}, fakeActive{id: "active"})

	first, err := alloc.Start(context.Background(), StartOptions{
		Name: "first",
		Arms: []Arm{{ConfigVersionID: "A", Weight: 1}, {ConfigVersionID: "B", Weight: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := alloc.Start(context.Background(), StartOptions{
		Name: "second",
		Arms: []Arm{{ConfigVersionID: "C", Weight: 1}, {ConfigVersionID: "D", Weight: 1}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := store.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Status != StatusStopped {
		t.Errorf("first experiment status = %v, want stopped", reloaded.Status)
	}

	running, ok, err := store.GetRunning(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || running.Name != "second" {
		t.Errorf("expected second experiment to be the sole running one")
	}
}

func TestAllocationSumsToHundred(t *testing.T) {
	resolver := fakeResolver{known: map[string]bool{"A": true, "B": true, "C": true}}
	alloc := NewAllocator(NewMemoryStore(), resolver, fakeMetrics{}, fakeActive{id: "active"})
	e, err := alloc.Start(context.Background(), StartOptions{
		Name:       "three-arm",
		Arms:       []Arm{{ConfigVersionID: "A", Weight: 1}, {ConfigVersionID: "B", Weight: 2}, {ConfigVersionID: "C", Weight: 0}},
		Allocation: map[string]float64{"A": 1, "B": 2, "C": 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0.0
	for _, v := range e.Allocation {
		total += v
	}
	if total < 99.99 || total > 100.01 {
		t.Errorf("allocation total = %v, want ~100", total)
	}
}
