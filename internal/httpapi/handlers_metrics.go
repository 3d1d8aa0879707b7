package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func registerMetricsEndpoints(api *echo.Group, deps *Dependencies) {
	api.GET("/metrics/recent", deps.listRecentMetrics)
	api.GET("/scorecards", deps.listScorecards)
}

func (deps *Dependencies) listRecentMetrics(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	rows, err := deps.MetricStore.ListRecent(bgCtx(c), limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "metrics_lookup_failed")
	}
	return c.JSON(http.StatusOK, rows)
}

// listScorecards answers the same recent-metrics feed filtered to a
// trailing window, parsed as a Go duration string (e.g. "24h", "30m");
// an empty or unparseable range falls back to 24h.
func (deps *Dependencies) listScorecards(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	window := 24 * time.Hour
	if raw := c.QueryParam("range"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			window = d
		}
	}
	cutoff := time.Now().Add(-window)

	rows, err := deps.MetricStore.ListRecent(bgCtx(c), limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "metrics_lookup_failed")
	}
	filtered := rows[:0:0]
	for _, m := range rows {
		if m.CreatedAt.After(cutoff) {
			filtered = append(filtered, m)
		}
	}
	return c.JSON(http.StatusOK, filtered)
}
