package configstore

import (
	"context"
	"errors"

	"retentionloop/internal/params"
)

// ParamsResolver adapts Service to metricsrecorder.ParamsResolver and
// suggestions' config-lookup needs, without those packages importing
// configstore's full Service surface.
type ParamsResolver struct {
	Service *Service
}

func (r ParamsResolver) ParamsByID(ctx context.Context, id string) (params.P, error) {
	v, err := r.Service.GetByID(ctx, id)
	if err != nil {
		return params.P{}, err
	}
	return v.Params, nil
}

func (r ParamsResolver) ActiveID(ctx context.Context) (string, error) {
	v, err := r.Service.GetActive(ctx)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

// VersionResolver adapts Service to experiments.ConfigVersionResolver and
// experiments.ActiveConfigProvider, the two narrow contracts the allocator
// needs from the config-version store.
type VersionResolver struct {
	Service *Service
}

// Exists reports whether id names a known config version.
func (r VersionResolver) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := r.Service.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetActiveID returns the current active version's id.
func (r VersionResolver) GetActiveID(ctx context.Context) (string, error) {
	v, err := r.Service.GetActive(ctx)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}
