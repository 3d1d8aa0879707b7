package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"retentionloop/internal/archive"
	"retentionloop/internal/suggestions"
)

func registerSuggestionEndpoints(api *echo.Group, deps *Dependencies) {
	api.POST("/analyze-renders", deps.analyzeRenders, rateLimited(deps))
	api.GET("/suggestions", deps.listSuggestions)
}

const defaultAnalyzeLimit = 200

func analyzeRange(c echo.Context) suggestions.Range {
	if raw := c.QueryParam("range"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return suggestions.Range{Since: time.Now().Add(-d)}
		}
	}
	return suggestions.Range{}
}

func (deps *Dependencies) analyzeRenders(c echo.Context) error {
	report, err := deps.Suggestions.Analyze(bgCtx(c), defaultAnalyzeLimit, analyzeRange(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "analysis_failed")
	}
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Record(bgCtx(c), archive.TriggerAnalysisReport, report)
	}
	return c.JSON(http.StatusOK, report)
}

func (deps *Dependencies) listSuggestions(c echo.Context) error {
	report, err := deps.Suggestions.Analyze(bgCtx(c), defaultAnalyzeLimit, analyzeRange(c))
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "analysis_failed")
	}
	return c.JSON(http.StatusOK, report.Suggestions)
}
