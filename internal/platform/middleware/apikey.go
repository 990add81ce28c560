package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const apiKeyHeader = "X-API-Key"

// APIKey validates the pre-shared credential on every request. An empty
// expected key disables enforcement, which Config.Validate only permits in
// development.
func APIKey(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if expected == "" {
			return next
		}
		return func(c echo.Context) error {
			got := c.Request().Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
			}
			return next(c)
		}
	}
}
