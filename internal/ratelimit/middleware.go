package ratelimit

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// KeyFunc extracts the rate-limit key (operator email, falling back to IP)
// from a request.
type KeyFunc func(c echo.Context) string

// Middleware returns an echo middleware that 429s once key's bucket is
// exhausted.
func Middleware(limiter Limiter, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow(key(c)) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
