package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionloop/internal/experiments"
)

type fakeVersionResolver struct{ known map[string]bool }

func (f fakeVersionResolver) Exists(ctx context.Context, id string) (bool, error) {
	return f.known[id], nil
}

func (f fakeVersionResolver) GetActiveID(ctx context.Context) (string, error) {
	return "active-version", nil
}

type fakeMetricsSource struct{}

func (fakeMetricsSource) AggregateScore(ctx context.Context, configVersionID string, from, to time.Time) (float64, float64, int, error) {
	return 0.5, 0.1, 10, nil
}

func newTestAllocator() *experiments.Allocator {
	resolver := fakeVersionResolver{known: map[string]bool{"v1": true, "v2": true}}
	return experiments.NewAllocator(experiments.NewMemoryStore(), resolver, fakeMetricsSource{}, resolver)
}

func TestStartExperimentRejectsTooFewArms(t *testing.T) {
	deps := &Dependencies{Experiments: newTestAllocator()}
	c, rec := newEchoContext(http.MethodPost, "/api/experiment/start", `{"name":"test","arms":[{"config_version_id":"v1","weight":1}],"reward_metric":"score_total"}`)

	require.NoError(t, deps.startExperiment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_arm_count")
}

func TestStartExperimentRejectsUnknownConfigVersion(t *testing.T) {
	deps := &Dependencies{Experiments: newTestAllocator()}
	body := `{"name":"test","arms":[{"config_version_id":"v1","weight":0.5},{"config_version_id":"missing","weight":0.5}],"reward_metric":"score_total"}`
	c, rec := newEchoContext(http.MethodPost, "/api/experiment/start", body)

	require.NoError(t, deps.startExperiment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_config_version")
}

func TestStartExperimentThenStatusReportsRunning(t *testing.T) {
	allocator := newTestAllocator()
	deps := &Dependencies{Experiments: allocator}
	body := `{"name":"test","arms":[{"config_version_id":"v1","weight":0.5},{"config_version_id":"v2","weight":0.5}],"reward_metric":"score_total"}`
	c, rec := newEchoContext(http.MethodPost, "/api/experiment/start", body)
	require.NoError(t, deps.startExperiment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c2, rec2 := newEchoContext(http.MethodGet, "/api/experiment/status", "")
	require.NoError(t, deps.experimentStatus(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Contains(t, rec2.Body.String(), "test")
}

func TestExperimentStatusWithNoneRunningReturnsFalse(t *testing.T) {
	deps := &Dependencies{Experiments: newTestAllocator()}
	c, rec := newEchoContext(http.MethodGet, "/api/experiment/status", "")

	require.NoError(t, deps.experimentStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())
}
