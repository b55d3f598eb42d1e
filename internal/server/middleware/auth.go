package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader carries the key every /api request must present.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware rejects requests whose X-API-Key does not match the
// master key. Without a configured master key every request is rejected.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.(*AppContext).App
		key := c.Request().Header.Get(APIKeyHeader)

		if app.MasterAPIKey == "" || key == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(app.MasterAPIKey)) != 1 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		return next(c)
	}
}
