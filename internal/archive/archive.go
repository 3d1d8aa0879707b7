// Package archive writes audit-trail payloads — config-version lifecycle
// events, feedback-loop runs, and suggestion-engine reports — as JSON
// objects keyed by timestamp and trigger, over a narrow Get/Put/List
// object-store contract.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no archived object.
var ErrNotFound = errors.New("archive: object not found")

// Store is the narrow contract archive backends implement.
type Store interface {
	// Put stores raw bytes at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get retrieves the bytes stored at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns keys with the given prefix, lexically sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Trigger identifies what produced an archived record.
type Trigger string

const (
	TriggerConfigCreated    Trigger = "config_created"
	TriggerConfigActivated  Trigger = "config_activated"
	TriggerConfigRolledBack Trigger = "config_rolled_back"
	TriggerFeedbackApplied  Trigger = "feedback_applied"
	TriggerAnalysisReport   Trigger = "analysis_report"
)

// Archiver writes JSON audit records to a Store, keyed by
// "<UTC timestamp>_<trigger>.json", the timestamp carrying a fixed
// nine-digit fraction with ':' replaced by '-' so keys sort
// chronologically. Every applied feedback-loop run
// and every /analyze-renders call writes one such object.
type Archiver struct {
	store Store
	now   func() time.Time
}

// NewArchiver wraps store. A nil store is not valid; callers that want a
// no-op archiver should pass NewMemoryStore() or NewFileStore with a
// scratch directory.
func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// WithClock overrides the time source, for deterministic tests.
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Record marshals payload as JSON and stores it under a timestamp+trigger
// key, returning the key so callers can reference it (e.g. the suggestion
// engine's rollback_to_config_version pointing back at the archived
// activation record).
func (a *Archiver) Record(ctx context.Context, trigger Trigger, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("archive: marshal %s: %w", trigger, err)
	}
	key := fmt.Sprintf("%s_%s.json", a.now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"), trigger)
	key = strings.ReplaceAll(key, ":", "-")
	if err := a.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}
	return key, nil
}

// Get retrieves and unmarshals the object at key into dst.
func (a *Archiver) Get(ctx context.Context, key string, dst any) error {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// ListByTrigger returns archived keys for trigger, newest first.
func (a *Archiver) ListByTrigger(ctx context.Context, trigger Trigger) ([]string, error) {
	keys, err := a.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	suffix := "_" + string(trigger) + ".json"
	var matched []string
	for _, k := range keys {
		if strings.HasSuffix(k, suffix) {
			matched = append(matched, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matched)))
	return matched, nil
}
