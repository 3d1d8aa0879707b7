package security

import (
	"context"
	"time"
)

// Recorder implements internal/auth.SecurityEventSink against a Store.
// Kept a thin adapter, not auth's own type, so internal/auth has no
// dependency on this package or its storage backend.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder builds a Recorder over store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock overrides the Recorder's clock, for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// RecordAuthFailure appends an auth_failure security_event. Insert errors
// are swallowed (best-effort, append-only audit trail; the caller's 401/403
// response does not depend on this succeeding).
func (r *Recorder) RecordAuthFailure(ctx context.Context, reason, ip, email string) {
	_, _ = r.store.Insert(ctx, Event{
		CreatedAt: r.now(),
		Type:      TypeAuthFailure,
		Meta: map[string]any{
			"reason": reason,
			"ip":     ip,
			"email":  email,
		},
	})
}
