package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"retentionloop/internal/archive"
	"retentionloop/internal/configstore"
	"retentionloop/internal/params"
	"retentionloop/internal/prompt"
)

func registerPromptEndpoints(api *echo.Group, deps *Dependencies) {
	api.POST("/prompt/apply", deps.applyPrompt, rateLimited(deps))
	api.POST("/auto-optimize", deps.autoOptimize, rateLimited(deps))
}

type applyPromptRequest struct {
	Prompt   string `json:"prompt"`
	Activate bool   `json:"activate"`
	Note     string `json:"note"`
}

func (deps *Dependencies) applyPrompt(c echo.Context) error {
	var req applyPromptRequest
	if err := c.Bind(&req); err != nil || req.Prompt == "" {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}

	ctx := bgCtx(c)
	active, err := deps.Configs.GetActive(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_lookup_failed")
	}

	result, err := deps.Prompt.Apply(ctx, req.Prompt, active.Params)
	if err != nil {
		var notActionable prompt.ErrNotActionable
		if errors.As(err, &notActionable) {
			return jsonError(c, http.StatusUnprocessableEntity, "prompt_not_actionable")
		}
		return jsonError(c, http.StatusInternalServerError, "prompt_apply_failed")
	}

	note := req.Note
	if note == "" {
		note = "applied prompt: " + req.Prompt
	}
	v, err := deps.Configs.Create(ctx, configstore.CreateOptions{
		Params:    result.Params,
		Activate:  req.Activate,
		Note:      note,
		CreatedBy: operatorEmail(c),
	})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_create_failed")
	}
	if req.Activate {
		deps.onConfigActivated(c, v)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"version":  v,
		"strategy": result.Strategy,
		"changes":  result.Changes,
		"warnings": result.Warnings,
	})
}

// autoOptimize is the operator's one-shot counterpart to the periodic
// feedback loop: take the single best-ranked suggestion from analyze() and
// apply it immediately, rather than waiting for a render-completed trigger.
func (deps *Dependencies) autoOptimize(c echo.Context) error {
	ctx := bgCtx(c)
	report, err := deps.Suggestions.Analyze(ctx, defaultAnalyzeLimit, analyzeRange(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "analysis_failed")
	}
	if len(report.Suggestions) == 0 {
		return jsonError(c, http.StatusNotFound, "no_optimization_suggestion")
	}
	best := report.Suggestions[0]

	var v configstore.Version
	switch best.Type {
	case "rollback_to_config_version":
		v, err = deps.Configs.Activate(ctx, best.TargetConfigVersion)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "config_activate_failed")
		}
	case "param_delta":
		active, aerr := deps.Configs.GetActive(ctx)
		if aerr != nil {
			return jsonError(c, http.StatusInternalServerError, "config_lookup_failed")
		}
		next := active.Params
		for key, delta := range best.Changes {
			if cur, ok := params.Get(&next, key); ok {
				params.Set(&next, key, params.Clamp(key, cur+delta))
			}
		}
		v, err = deps.Configs.Create(ctx, configstore.CreateOptions{
			Params:    next,
			Activate:  true,
			Note:      "auto-optimize: " + best.Reason,
			CreatedBy: operatorEmail(c) + "_auto_optimize",
		})
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, "config_create_failed")
		}
	default:
		return jsonError(c, http.StatusNotFound, "no_optimization_suggestion")
	}

	deps.onConfigActivated(c, v)
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Record(ctx, archive.TriggerFeedbackApplied, map[string]any{
			"version":    v,
			"suggestion": best,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"version": v, "applied": best})
}
