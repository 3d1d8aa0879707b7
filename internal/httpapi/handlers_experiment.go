package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"retentionloop/internal/experiments"
)

func registerExperimentEndpoints(api *echo.Group, deps *Dependencies) {
	api.POST("/experiment/start", deps.startExperiment, rateLimited(deps))
	api.POST("/experiment/stop", deps.stopExperiment, rateLimited(deps))
	api.GET("/experiment/status", deps.experimentStatus)
	api.GET("/config-selector", deps.selectConfigForNewJob)
}

type startExperimentRequest struct {
	Name         string             `json:"name"`
	Arms         []experiments.Arm  `json:"arms"`
	Allocation   map[string]float64 `json:"allocation"`
	RewardMetric string             `json:"reward_metric"`
	StartAt      *time.Time         `json:"start_at"`
	EndAt        *time.Time         `json:"end_at"`
}

func (deps *Dependencies) startExperiment(c echo.Context) error {
	var req startExperimentRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}
	e, err := deps.Experiments.Start(bgCtx(c), experiments.StartOptions{
		Name:         req.Name,
		Arms:         req.Arms,
		Allocation:   req.Allocation,
		RewardMetric: req.RewardMetric,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		CreatedBy:    operatorEmail(c),
	})
	if err != nil {
		var invalidVersion *experiments.ErrInvalidConfigVersion
		switch {
		case errors.Is(err, experiments.ErrInvalidArmCount):
			return jsonError(c, http.StatusBadRequest, "invalid_arm_count")
		case errors.As(err, &invalidVersion):
			return jsonError(c, http.StatusBadRequest, "invalid_config_version")
		default:
			return jsonError(c, http.StatusInternalServerError, "experiment_start_failed")
		}
	}
	return c.JSON(http.StatusCreated, e)
}

func (deps *Dependencies) stopExperiment(c echo.Context) error {
	if err := deps.Experiments.Stop(bgCtx(c)); err != nil {
		return jsonError(c, http.StatusInternalServerError, "experiment_stop_failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

func (deps *Dependencies) experimentStatus(c echo.Context) error {
	report, err := deps.Experiments.Status(bgCtx(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "experiment_status_failed")
	}
	if report == nil {
		return c.JSON(http.StatusOK, map[string]bool{"running": false})
	}
	return c.JSON(http.StatusOK, report)
}

func (deps *Dependencies) selectConfigForNewJob(c echo.Context) error {
	id, err := deps.Experiments.SelectForNewJob(bgCtx(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "config_selector_failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"config_version_id": id})
}
