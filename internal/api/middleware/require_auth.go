package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAuth redirects anonymous requests to loginPath.
func RequireAuth(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IdentityFrom(c).IsAnonymous() {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		}
	}
}
