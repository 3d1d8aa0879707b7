package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"retentionloop/internal/jobs"
)

func registerSampleFootageEndpoints(api *echo.Group, deps *Dependencies) {
	api.GET("/sample-footage", deps.listSampleFootage)
	api.POST("/sample-footage/test", deps.testSampleFootage, rateLimited(deps))
}

// lister returns the optional jobs.Lister extension, unavailable unless the
// wired jobs.Repository backend implements it.
func (deps *Dependencies) lister() (jobs.Lister, bool) {
	l, ok := deps.Jobs.(jobs.Lister)
	return l, ok
}

func (deps *Dependencies) listSampleFootage(c echo.Context) error {
	l, ok := deps.lister()
	if !ok {
		return jsonError(c, http.StatusNotImplemented, "sample_footage_unavailable")
	}
	limit := queryInt(c, "limit", 20)
	rows, err := l.List(bgCtx(c), limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "sample_footage_lookup_failed")
	}
	return c.JSON(http.StatusOK, rows)
}

type testSampleFootageRequest struct {
	JobID           string `json:"job_id"`
	ConfigVersionID string `json:"config_version_id"`
}

func (deps *Dependencies) testSampleFootage(c echo.Context) error {
	l, ok := deps.lister()
	if !ok {
		return jsonError(c, http.StatusNotImplemented, "sample_footage_unavailable")
	}
	var req testSampleFootageRequest
	if err := c.Bind(&req); err != nil || req.JobID == "" {
		return jsonError(c, http.StatusBadRequest, "invalid_payload")
	}

	job, ok := l.Get(bgCtx(c), req.JobID)
	if !ok {
		return jsonError(c, http.StatusNotFound, "job_not_found")
	}

	result, configVersionID, err := deps.Metrics.Preview(bgCtx(c), job, req.ConfigVersionID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "preview_failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"job_id":            job.ID,
		"config_version_id": configVersionID,
		"result":            result,
	})
}
