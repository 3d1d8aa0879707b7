package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/params"
	"retentionloop/internal/suggestions"
)

type fakeParamsResolver struct{}

func (fakeParamsResolver) ParamsByID(ctx context.Context, id string) (params.P, error) {
	return params.DefaultParams(), nil
}

func (fakeParamsResolver) ActiveID(ctx context.Context) (string, error) {
	return "active-version", nil
}

func TestListSuggestionsOnEmptyStoreReturnsEmptyArray(t *testing.T) {
	engine := suggestions.NewEngine(metricsrecorder.NewRing(), fakeParamsResolver{})
	deps := &Dependencies{Suggestions: engine}
	c, rec := newEchoContext(http.MethodGet, "/api/suggestions", "")

	require.NoError(t, deps.listSuggestions(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalyzeRendersOnEmptyStoreSucceeds(t *testing.T) {
	engine := suggestions.NewEngine(metricsrecorder.NewRing(), fakeParamsResolver{})
	deps := &Dependencies{Suggestions: engine}
	c, rec := newEchoContext(http.MethodPost, "/api/analyze-renders?range=1h", "")

	require.NoError(t, deps.analyzeRenders(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "suggestions")
}

func TestAnalyzeRangeParsesValidDuration(t *testing.T) {
	c, _ := newEchoContext(http.MethodGet, "/api/analyze-renders?range=2h", "")
	rng := analyzeRange(c)
	assert.False(t, rng.Since.IsZero())
}

func TestAnalyzeRangeIgnoresInvalidDuration(t *testing.T) {
	c, _ := newEchoContext(http.MethodGet, "/api/analyze-renders?range=not-a-duration", "")
	rng := analyzeRange(c)
	assert.True(t, rng.Since.IsZero())
}
