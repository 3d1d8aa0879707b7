package security

import (
	"context"
	"testing"
	"time"
)

func TestRingDiscardsOldestBeyondCapacity(t *testing.T) {
	r := NewRing()
	ctx := context.Background()
	for i := 0; i < ringCapacity+10; i++ {
		if _, err := r.Insert(ctx, Event{Type: TypeAuthFailure}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	all, err := r.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != ringCapacity {
		t.Fatalf("len = %d, want %d", len(all), ringCapacity)
	}
}

func TestRecorderAppendsAuthFailure(t *testing.T) {
	ring := NewRing()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecorder(ring).WithClock(func() time.Time { return fixed })

	rec.RecordAuthFailure(context.Background(), "not_on_owner_list", "10.0.0.1", "intruder@example.com")

	events, err := ring.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	e := events[0]
	if e.Type != TypeAuthFailure {
		t.Errorf("Type = %s, want %s", e.Type, TypeAuthFailure)
	}
	if e.Meta["reason"] != "not_on_owner_list" || e.Meta["email"] != "intruder@example.com" {
		t.Errorf("unexpected meta: %+v", e.Meta)
	}
	if !e.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, fixed)
	}
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	ring := NewRing()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, _ = ring.Insert(ctx, Event{Type: TypeAuthFailure, CreatedAt: base.Add(time.Duration(i) * time.Minute), Meta: map[string]any{"seq": i}})
	}
	events, err := ring.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].Meta["seq"] != 2 || events[2].Meta["seq"] != 0 {
		t.Errorf("unexpected order: %+v", events)
	}
}
