package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionloop/internal/configstore"
	"retentionloop/internal/jobs"
	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/prompt"
	"retentionloop/internal/suggestions"
)

func newTestConfigsAndPrompt(t *testing.T) (*configstore.Service, *prompt.Translator) {
	t.Helper()
	configs := configstore.NewService(configstore.NewMemoryStore(), jobs.NewMemoryRepository())
	_, err := configs.EnsureDefault(context.Background())
	require.NoError(t, err)

	engine := suggestions.NewEngine(metricsrecorder.NewRing(), fakeParamsResolver{})
	translator := prompt.NewTranslator(engine, prompt.FallbackOptions{Limit: defaultAnalyzeLimit})
	return configs, translator
}

func TestApplyPromptRejectsEmptyPrompt(t *testing.T) {
	configs, translator := newTestConfigsAndPrompt(t)
	deps := &Dependencies{Configs: configs, Prompt: translator}
	c, rec := newEchoContext(http.MethodPost, "/api/prompt/apply", `{"prompt":""}`)

	require.NoError(t, deps.applyPrompt(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyPromptWithDirectiveCreatesVersion(t *testing.T) {
	configs, translator := newTestConfigsAndPrompt(t)
	deps := &Dependencies{Configs: configs, Prompt: translator}
	c, rec := newEchoContext(http.MethodPost, "/api/prompt/apply", `{"prompt":"increase cut aggression by 10","activate":true}`)

	require.NoError(t, deps.applyPrompt(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt_directive")
}

func TestAutoOptimizeReturnsNotFoundWithNoSuggestions(t *testing.T) {
	configs, _ := newTestConfigsAndPrompt(t)
	engine := suggestions.NewEngine(metricsrecorder.NewRing(), fakeParamsResolver{})
	deps := &Dependencies{Configs: configs, Suggestions: engine}
	c, rec := newEchoContext(http.MethodPost, "/api/auto-optimize", "")

	require.NoError(t, deps.autoOptimize(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_optimization_suggestion")
}
