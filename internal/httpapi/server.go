// Package httpapi wires every component's business operations to the HTTP
// surface, following a registerRoutes(e, deps)/e.Group("/api")/
// registerXEndpoints(api, deps) pattern: one Dependencies bundle, one
// registration function per area of the route table, thin handlers that
// bind, call a service, and c.JSON the result.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"retentionloop/internal/archive"
	"retentionloop/internal/auth"
	"retentionloop/internal/configstore"
	"retentionloop/internal/eventbus"
	"retentionloop/internal/experiments"
	"retentionloop/internal/feedback"
	"retentionloop/internal/jobs"
	"retentionloop/internal/metricsrecorder"
	"retentionloop/internal/prompt"
	"retentionloop/internal/ratelimit"
	"retentionloop/internal/security"
	"retentionloop/internal/suggestions"
)

// Dependencies bundles every collaborator the route handlers call into. It
// is built once in main and passed to NewEcho.
type Dependencies struct {
	Configs     *configstore.Service
	Experiments *experiments.Allocator
	Metrics     *metricsrecorder.Recorder
	MetricStore metricsrecorder.Store
	Suggestions *suggestions.Engine
	Feedback    *feedback.Engine
	Prompt      *prompt.Translator
	Jobs        jobs.Repository

	AuthStore *auth.Store
	OIDC      *auth.OIDC
	Security  *security.Recorder
	Limiter   ratelimit.Limiter
	Bus       *eventbus.Bus
	Archiver  *archive.Archiver

	Owners            []string
	DevPasswordHeader string
	DevPassword       string
	SessionCookieName string
}

// NewEcho builds and registers the full route table over deps: recover and
// request logging first, then this service's session/rate-limit/CORS
// layering.
func NewEcho(deps *Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	registerRoutes(e, deps)
	return e
}

// sessionMiddleware attaches the current operator to the request context
// when a valid session cookie is present, via echo.WrapMiddleware since
// internal/auth's Middleware is a stdlib net/http middleware.
func sessionMiddleware(deps *Dependencies) echo.MiddlewareFunc {
	return echo.WrapMiddleware(auth.Middleware(deps.AuthStore, deps.SessionCookieName, false))
}

// requireOperator wraps internal/auth.RequireOperator the same way, gating
// every /api route on the owner-list-AND-dev-password rule.
func requireOperator(deps *Dependencies) echo.MiddlewareFunc {
	return echo.WrapMiddleware(auth.RequireOperator(deps.Owners, deps.DevPasswordHeader, deps.DevPassword, deps.Security))
}

// rateLimited applies the mutation-route limiter keyed by operator email,
// falling back to remote IP when no session is attached.
func rateLimited(deps *Dependencies) echo.MiddlewareFunc {
	return ratelimit.Middleware(deps.Limiter, func(c echo.Context) string {
		if u, ok := auth.CurrentUser(c.Request().Context()); ok && u != nil {
			return u.Email
		}
		return c.RealIP()
	})
}

// jsonError writes the documented {"error": code} envelope.
func jsonError(c echo.Context, status int, code string) error {
	return c.JSON(status, map[string]string{"error": code})
}

func bgCtx(c echo.Context) context.Context {
	return c.Request().Context()
}
