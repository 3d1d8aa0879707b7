package configstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"retentionloop/internal/jobs"
	"retentionloop/internal/params"
	"retentionloop/internal/presets"
)

// Service wraps a Store with the documented business operations and a
// process-local cache of the newest versions, single-writer guarded like
// the other store-backed services in this codebase.
type Service struct {
	store Store
	jobs  jobs.Repository // optional; nil disables job repointing

	mu        sync.RWMutex
	cacheN    int
	cache     []Version
	cacheFull bool
}

// NewService builds a Service over store. jobsRepo may be nil when no job
// repository is wired (e.g. tests, or a deployment that manages jobs
// entirely out of band).
func NewService(store Store, jobsRepo jobs.Repository) *Service {
	return &Service{store: store, jobs: jobsRepo, cacheN: 50}
}

// EnsureDefault creates a default version from the system preset if the
// store is empty, or promotes the newest row if none is active.
func (s *Service) EnsureDefault(ctx context.Context) (Version, error) {
	active, ok, err := s.store.GetActive(ctx)
	if err != nil {
		return Version{}, err
	}
	if ok {
		return active, nil
	}

	existing, err := s.store.List(ctx, 1)
	if err != nil {
		return Version{}, err
	}
	if len(existing) > 0 {
		promoted, ok, err := s.store.PromoteNewest(ctx)
		if err != nil {
			return Version{}, err
		}
		if ok {
			s.refreshCache(ctx)
			return promoted, nil
		}
	}

	def := presets.Default()
	v, err := s.store.Insert(ctx, Version{
		PresetName: def.Name,
		Params:     def.Params,
		IsActive:   true,
		CreatedBy:  "system",
		Note:       "default version created by ensure_default",
	})
	if err != nil {
		return Version{}, err
	}
	s.refreshCache(ctx)
	return v, nil
}

// CreateOptions configures Create.
type CreateOptions struct {
	Params     params.P
	PresetName string
	Activate   bool
	Note       string
	CreatedBy  string
}

// Create validates and persists a new version. If Activate, activation is
// transactional in the store and every in-flight job is repointed.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (Version, error) {
	p, err := params.Parse(nil, "", &opts.Params)
	if err != nil {
		return Version{}, err
	}
	v, err := s.store.Insert(ctx, Version{
		CreatedAt:  time.Now(),
		CreatedBy:  opts.CreatedBy,
		PresetName: opts.PresetName,
		Params:     p,
		IsActive:   opts.Activate,
		Note:       opts.Note,
	})
	if err != nil {
		return Version{}, fmt.Errorf("config_create_failed: %w", err)
	}
	if opts.Activate {
		if s.jobs != nil {
			_, _ = s.jobs.RepointInFlight(ctx, v.ID)
		}
	}
	s.refreshCache(ctx)
	return v, nil
}

// Activate activates an existing version by id.
func (s *Service) Activate(ctx context.Context, id string) (Version, error) {
	v, err := s.store.Activate(ctx, id)
	if err != nil {
		return Version{}, err
	}
	if s.jobs != nil {
		_, _ = s.jobs.RepointInFlight(ctx, v.ID)
	}
	s.refreshCache(ctx)
	return v, nil
}

// GetActive returns the current active version, self-healing via
// EnsureDefault if none exists.
func (s *Service) GetActive(ctx context.Context) (Version, error) {
	active, ok, err := s.store.GetActive(ctx)
	if err != nil {
		return Version{}, err
	}
	if ok {
		return active, nil
	}
	return s.EnsureDefault(ctx)
}

// GetByID returns a version by id.
func (s *Service) GetByID(ctx context.Context, id string) (Version, error) {
	return s.store.GetByID(ctx, id)
}

// List returns the newest versions, bounded by limit (<=200).
func (s *Service) List(ctx context.Context, limit int) ([]Version, error) {
	return s.store.List(ctx, limit)
}

// Rollback activates the most recent non-active version. Returns
// ErrRollbackUnavailable if none exists.
func (s *Service) Rollback(ctx context.Context) (Version, error) {
	rows, err := s.store.List(ctx, 2)
	if err != nil {
		return Version{}, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	for _, row := range rows {
		if !row.IsActive {
			return s.Activate(ctx, row.ID)
		}
	}
	return Version{}, ErrRollbackUnavailable
}

func (s *Service) refreshCache(ctx context.Context) {
	rows, err := s.store.List(ctx, s.cacheN)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.cache = rows
	s.cacheFull = true
	s.mu.Unlock()
}

// CachedList returns the in-process cache mirror if populated, else falls
// through to the store.
func (s *Service) CachedList(ctx context.Context, limit int) ([]Version, error) {
	s.mu.RLock()
	full := s.cacheFull
	cache := s.cache
	s.mu.RUnlock()
	if !full {
		s.refreshCache(ctx)
		s.mu.RLock()
		cache = s.cache
		s.mu.RUnlock()
	}
	limit = clampListLimit(limit)
	if limit > len(cache) {
		limit = len(cache)
	}
	return cache[:limit], nil
}
