package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"retentionloop/internal/archive"
	"retentionloop/internal/auth"
	"retentionloop/internal/configstore"
	"retentionloop/internal/eventbus"
	"retentionloop/internal/params"
	"retentionloop/internal/presets"
)

func registerConfigEndpoints(api *echo.Group, deps *Dependencies) {
	api.GET("/config", deps.getActiveConfig)
	api.GET("/config/versions", deps.listConfigVersions)
	api.POST("/config", deps.createConfig, rateLimited(deps))
	api.POST("/config/activate", deps.activateConfig, rateLimited(deps))
	api.POST("/config/rollback", deps.rollbackConfig, rateLimited(deps))
	api.POST("/preset/apply", deps.applyPreset, rateLimited(deps))
	api.GET("/presets", deps.listPresets)
}

func (deps *Dependencies) getActiveConfig(c echo.Context) error {
	v, err := deps.Configs.GetActive(bgCtx(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_lookup_failed")
	}
	return c.JSON(http.StatusOK, v)
}

func (deps *Dependencies) listConfigVersions(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	rows, err := deps.Configs.CachedList(bgCtx(c), limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_lookup_failed")
	}
	return c.JSON(http.StatusOK, rows)
}

type createConfigRequest struct {
	Params         params.RawPatch                `json:"params"`
	PresetName     string                         `json:"preset_name"`
	Subtitle       string                         `json:"subtitle_style_mode"`
	SegmentWeights *params.SegmentWeightOverrides `json:"segment_weights"`
	ScoringWeights *params.ScoringWeightOverrides `json:"scoring_weights"`
	Activate       bool                           `json:"activate"`
	Note           string                         `json:"note"`
}

func (deps *Dependencies) createConfig(c echo.Context) error {
	var req createConfigRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}

	base := params.DefaultParams()
	if req.PresetName != "" {
		p, ok := presets.Get(req.PresetName)
		if !ok {
			return jsonError(c, http.StatusBadRequest, "unknown_preset")
		}
		base = p.Params
	}
	p, err := params.Parse(req.Params, req.Subtitle, &base)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_params")
	}
	if req.SegmentWeights != nil || req.ScoringWeights != nil {
		p.SegmentWeights, p.ScoringWeights = params.ClampWeights(req.SegmentWeights, req.ScoringWeights)
	}

	v, err := deps.Configs.Create(bgCtx(c), configstore.CreateOptions{
		Params:     p,
		PresetName: req.PresetName,
		Activate:   req.Activate,
		Note:       req.Note,
		CreatedBy:  operatorEmail(c),
	})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_create_failed")
	}
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Record(bgCtx(c), archive.TriggerConfigCreated, v)
	}
	if req.Activate {
		deps.onConfigActivated(c, v)
	}
	return c.JSON(http.StatusCreated, v)
}

type configIDRequest struct {
	ID string `json:"id"`
}

func (deps *Dependencies) activateConfig(c echo.Context) error {
	var req configIDRequest
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}
	v, err := deps.Configs.Activate(bgCtx(c), req.ID)
	if err != nil {
		if errors.Is(err, configstore.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "config_not_found")
		}
		return jsonError(c, http.StatusInternalServerError, "config_activate_failed")
	}
	deps.onConfigActivated(c, v)
	return c.JSON(http.StatusOK, v)
}

func (deps *Dependencies) rollbackConfig(c echo.Context) error {
	v, err := deps.Configs.Rollback(bgCtx(c))
	if err != nil {
		if errors.Is(err, configstore.ErrRollbackUnavailable) {
			return jsonError(c, http.StatusNotFound, "rollback_unavailable")
		}
		return jsonError(c, http.StatusInternalServerError, "config_rollback_failed")
	}
	deps.onConfigActivated(c, v)
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Record(bgCtx(c), archive.TriggerConfigRolledBack, v)
	}
	return c.JSON(http.StatusOK, v)
}

type applyPresetRequest struct {
	Name     string `json:"name"`
	Activate bool   `json:"activate"`
}

func (deps *Dependencies) applyPreset(c echo.Context) error {
	var req applyPresetRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}
	preset, ok := presets.Get(req.Name)
	if !ok {
		return jsonError(c, http.StatusNotFound, "unknown_preset")
	}
	v, err := deps.Configs.Create(bgCtx(c), configstore.CreateOptions{
		Params:     preset.Params,
		PresetName: preset.Name,
		Activate:   req.Activate,
		Note:       "applied preset " + preset.Name,
		CreatedBy:  operatorEmail(c),
	})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_create_failed")
	}
	if req.Activate {
		deps.onConfigActivated(c, v)
	}
	return c.JSON(http.StatusCreated, v)
}

func (deps *Dependencies) listPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, presets.List())
}

// onConfigActivated fires the archive + event-bus side effects every
// activation path (create-with-activate, activate, rollback) shares.
func (deps *Dependencies) onConfigActivated(c echo.Context, v configstore.Version) {
	ctx := bgCtx(c)
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Record(ctx, archive.TriggerConfigActivated, v)
	}
	if deps.Bus != nil {
		_ = deps.Bus.PublishConfigActivated(ctx, eventbus.ConfigActivated{
			ConfigVersionID: v.ID,
			PresetName:      v.PresetName,
			ActivatedAt:     v.CreatedAt,
		})
	}
}

func operatorEmail(c echo.Context) string {
	if u, ok := auth.CurrentUser(c.Request().Context()); ok && u != nil {
		return u.Email
	}
	return "unknown"
}

func queryInt(c echo.Context, key string, def int) int {
	raw := c.QueryParam(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
