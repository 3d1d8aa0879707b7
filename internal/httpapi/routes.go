package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerRoutes mounts auth routes outside the authenticated group;
// everything else sits under /api behind the session + operator-
// authorization middleware, with rate limiting additionally attached to
// each POST route by its register function.
func registerRoutes(e *echo.Echo, deps *Dependencies) {
	registerAuthEndpoints(e, deps)

	api := e.Group("/api")
	api.Use(sessionMiddleware(deps))
	api.Use(requireOperator(deps))

	registerConfigEndpoints(api, deps)
	registerMetricsEndpoints(api, deps)
	registerSuggestionEndpoints(api, deps)
	registerPromptEndpoints(api, deps)
	registerExperimentEndpoints(api, deps)
	registerSampleFootageEndpoints(api, deps)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func registerAuthEndpoints(e *echo.Echo, deps *Dependencies) {
	if deps.OIDC == nil {
		return
	}
	e.GET("/auth/login", echo.WrapHandler(deps.OIDC.LoginHandler()))
	e.GET("/auth/callback", echo.WrapHandler(deps.OIDC.CallbackHandler(true, "")))
	e.GET("/auth/logout", echo.WrapHandler(deps.OIDC.LogoutHandler(true, "")))
	e.GET("/auth/me", echo.WrapHandler(deps.OIDC.MeHandler()), sessionMiddleware(deps))
}
