package configstore

import (
	"context"
	"testing"

	"retentionloop/internal/params"
)

func TestEnsureDefaultCreatesActiveVersion(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	v, err := svc.EnsureDefault(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsActive {
		t.Error("expected ensure_default to create an active version")
	}
}

func TestCreateActivateThenGetActiveRoundTrips(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()
	p := params.DefaultParams()
	v, err := svc.Create(ctx, CreateOptions{Params: p, Activate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, err := svc.GetActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.ID != v.ID {
		t.Errorf("GetActive() = %s, want %s", active.ID, v.ID)
	}
}

func TestCreateActivateThenRollbackRestoresPrevious(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()
	p := params.DefaultParams()

	a, err := svc.Create(ctx, CreateOptions{Params: p, Activate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.Create(ctx, CreateOptions{Params: p, Activate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	aAfter, err := svc.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aAfter.IsActive {
		t.Error("expected version A to be inactive after B activates")
	}
	bAfter, err := svc.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bAfter.IsActive {
		t.Error("expected version B to be active")
	}

	rolled, err := svc.Rollback(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rolled.ID != a.ID {
		t.Errorf("Rollback() = %s, want %s", rolled.ID, a.ID)
	}
}

func TestExactlyOneActiveAfterMultipleCreates(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()
	p := params.DefaultParams()
	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, CreateOptions{Params: p, Activate: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	rows, err := svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	activeCount := 0
	for _, r := range rows {
		if r.IsActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("active count = %d, want 1", activeCount)
	}
}

func TestActivateUnknownIDReturnsNotFound(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	_, err := svc.Activate(context.Background(), "does-not-exist")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRollbackUnavailableWhenOnlyOneVersion(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateOptions{Params: params.DefaultParams(), Activate: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Rollback(ctx)
	if err != ErrRollbackUnavailable {
		t.Errorf("err = %v, want ErrRollbackUnavailable", err)
	}
}
