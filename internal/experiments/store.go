package experiments

import (
	"context"
	"time"
)

// Store is the persistence contract for experiments. At most one row may
// have Status==StatusRunning; starting one stops any other in the same
// transaction/call.
type Store interface {
	// Insert persists a new experiment.
	Insert(ctx context.Context, e Experiment) (Experiment, error)
	// StopRunning transitions every running experiment to stopped and
	// returns the ids touched.
	StopRunning(ctx context.Context) ([]string, error)
	// GetRunning returns the currently running experiment, if any.
	GetRunning(ctx context.Context) (Experiment, bool, error)
	// GetByID returns one experiment by id.
	GetByID(ctx context.Context, id string) (Experiment, error)
	// Update persists changes to an existing experiment (status, end_at).
	Update(ctx context.Context, e Experiment) (Experiment, error)
}

// ConfigVersionResolver validates that a config-version id exists, used to
// reject experiments whose arms reference unknown versions.
type ConfigVersionResolver interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// MetricsSource aggregates render-quality outcomes for one config version
// over a time window, backing Status()'s per-arm report.
type MetricsSource interface {
	AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (avg, stdev float64, n int, err error)
}
