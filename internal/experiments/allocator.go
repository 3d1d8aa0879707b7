package experiments

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ActiveConfigProvider resolves the current active config-version id, used
// by SelectForNewJob when no experiment is running.
type ActiveConfigProvider interface {
	GetActiveID(ctx context.Context) (string, error)
}

// Allocator implements start/stop/status/select_for_new_job over a Store.
// A single mutex guards the in-process running-experiment cache.
type Allocator struct {
	store    Store
	versions ConfigVersionResolver
	metrics  MetricsSource
	active   ActiveConfigProvider

	// rng is injectable for deterministic tests.
	rng func() float64
	now func() time.Time

	mu      sync.RWMutex
	running *Experiment
}

// NewAllocator builds an Allocator with rng set to math/rand.Float64 and
// now set to time.Now; WithRNG and WithClock replace them.
func NewAllocator(store Store, versions ConfigVersionResolver, metrics MetricsSource, active ActiveConfigProvider) *Allocator {
	return &Allocator{
		store:    store,
		versions: versions,
		metrics:  metrics,
		active:   active,
		rng:      rand.Float64,
		now:      time.Now,
	}
}

// WithRNG overrides the random source, for reproducible tests.
func (a *Allocator) WithRNG(rng func() float64) *Allocator {
	a.rng = rng
	return a
}

// WithClock overrides the clock, for reproducible tests.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// StartOptions configures Start.
type StartOptions struct {
	Name         string
	Arms         []Arm
	Allocation   map[string]float64
	RewardMetric string
	StartAt      *time.Time
	EndAt        *time.Time
	CreatedBy    string
}

// Start validates arms and allocation, stops any currently running
// experiment, and persists the new one as running.
func (a *Allocator) Start(ctx context.Context, opts StartOptions) (Experiment, error) {
	if len(opts.Arms) < 2 || len(opts.Arms) > 4 {
		return Experiment{}, ErrInvalidArmCount
	}
	for _, arm := range opts.Arms {
		ok, err := a.versions.Exists(ctx, arm.ConfigVersionID)
		if err != nil {
			return Experiment{}, err
		}
		if !ok {
			return Experiment{}, &ErrInvalidConfigVersion{ID: arm.ConfigVersionID}
		}
	}

	allocation := normalizeAllocation(opts.Arms, opts.Allocation)

	if _, err := a.store.StopRunning(ctx); err != nil {
		return Experiment{}, err
	}

	startAt := opts.StartAt
	if startAt == nil {
		now := a.now()
		startAt = &now
	}

	e := Experiment{
		CreatedBy:    opts.CreatedBy,
		Name:         opts.Name,
		Status:       StatusRunning,
		Arms:         opts.Arms,
		Allocation:   allocation,
		RewardMetric: opts.RewardMetric,
		StartAt:      startAt,
		EndAt:        opts.EndAt,
	}
	out, err := a.store.Insert(ctx, e)
	if err != nil {
		return Experiment{}, err
	}

	a.mu.Lock()
	a.running = &out
	a.mu.Unlock()

	return out, nil
}

// normalizeAllocation renormalizes weights to sum to 100. If the total
// weight is 0, every arm gets an equal share.
func normalizeAllocation(arms []Arm, requested map[string]float64) map[string]float64 {
	source := requested
	if len(source) == 0 {
		source = make(map[string]float64, len(arms))
		for _, arm := range arms {
			source[arm.ConfigVersionID] = arm.Weight
		}
	}

	total := 0.0
	for _, arm := range arms {
		total += source[arm.ConfigVersionID]
	}

	out := make(map[string]float64, len(arms))
	if total <= 0 {
		share := 100.0 / float64(len(arms))
		for _, arm := range arms {
			out[arm.ConfigVersionID] = share
		}
		return out
	}
	for _, arm := range arms {
		out[arm.ConfigVersionID] = source[arm.ConfigVersionID] / total * 100
	}
	return out
}

// Stop transitions the running experiment (if any) to stopped.
func (a *Allocator) Stop(ctx context.Context) error {
	if _, err := a.store.StopRunning(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.running = nil
	a.mu.Unlock()
	return nil
}

// Status reports the running experiment's per-arm aggregated outcomes.
func (a *Allocator) Status(ctx context.Context) (*StatusReport, error) {
	running, ok, err := a.store.GetRunning(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	to := a.now()
	if running.EndAt != nil && running.EndAt.Before(to) {
		to = *running.EndAt
	}
	from := time.Time{}
	if running.StartAt != nil {
		from = *running.StartAt
	}

	outcomes := make([]ArmOutcome, 0, len(running.Arms))
	for _, arm := range running.Arms {
		avg, stdev, n, err := a.metrics.AggregateScore(ctx, arm.ConfigVersionID, from, to)
		if err != nil {
			return nil, err
		}
		sampleSignal := math.Log10(float64(n)+1) / 2.4
		spreadPenalty := 1 - stdev/24
		confidence := clamp01(0.35 + 0.65*sampleSignal*spreadPenalty)
		outcomes = append(outcomes, ArmOutcome{
			ConfigVersionID: arm.ConfigVersionID,
			AvgScore:        avg,
			Stdev:           stdev,
			SampleSize:      n,
			Confidence:      confidence,
		})
	}

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].AvgScore != outcomes[j].AvgScore {
			return outcomes[i].AvgScore > outcomes[j].AvgScore
		}
		if outcomes[i].Confidence != outcomes[j].Confidence {
			return outcomes[i].Confidence > outcomes[j].Confidence
		}
		return outcomes[i].SampleSize > outcomes[j].SampleSize
	})

	report := &StatusReport{Experiment: running, Arms: outcomes}
	if len(outcomes) > 0 && outcomes[0].SampleSize >= 5 {
		report.WinnerArmID = outcomes[0].ConfigVersionID
		report.WinnerReady = true
	}
	return report, nil
}

// SelectForNewJob samples one arm via weighted-random cumulative-cursor
// selection if a running experiment's window covers now, else returns the
// active config version.
func (a *Allocator) SelectForNewJob(ctx context.Context) (string, error) {
	a.mu.RLock()
	cached := a.running
	a.mu.RUnlock()

	var running Experiment
	var ok bool
	if cached != nil {
		running, ok = *cached, true
	} else {
		var err error
		running, ok, err = a.store.GetRunning(ctx)
		if err != nil {
			return "", err
		}
		if ok {
			a.mu.Lock()
			a.running = &running
			a.mu.Unlock()
		}
	}

	now := a.now()
	if ok && running.IsRunningAt(now) {
		return a.sampleArm(running), nil
	}
	if ok && !running.IsRunningAt(now) {
		// cache is stale (experiment ended); drop it and fall through.
		a.mu.Lock()
		a.running = nil
		a.mu.Unlock()
	}
	return a.active.GetActiveID(ctx)
}

// sampleArm performs cumulative-cursor weighted sampling over the
// experiment's allocation percentages.
func (a *Allocator) sampleArm(e Experiment) string {
	ids := make([]string, 0, len(e.Arms))
	for _, arm := range e.Arms {
		ids = append(ids, arm.ConfigVersionID)
	}
	sort.Strings(ids) // stable iteration order independent of map ordering

	r := a.rng() * 100
	cursor := 0.0
	for _, id := range ids {
		cursor += e.Allocation[id]
		if r < cursor {
			return id
		}
	}
	if len(ids) > 0 {
		return ids[len(ids)-1]
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
