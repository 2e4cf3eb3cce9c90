package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CORSConfig returns the permissive CORS middleware the API contract
// requires: any origin, with the range and disposition headers exposed so
// browser players can seek and name downloads. Preflight requests are
// answered with 204.
func CORSConfig() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			echo.HeaderContentLength,
			echo.HeaderXRequestedWith,
			echo.HeaderAccept,
			"Range",
		},
		ExposeHeaders: []string{
			echo.HeaderContentLength,
			"Content-Range",
			echo.HeaderContentDisposition,
		},
	})
}

// SecurityHeaders adds baseline security headers to all responses.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			c.Response().Header().Set("X-Frame-Options", "SAMEORIGIN")
			c.Response().Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			return next(c)
		}
	}
}
