package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxRole extracts the role claim injected by the Guard middleware and
// performs a fast-fail check before any service call: a non-empty role proves
// the middleware ran, so a handler reached without it rejects with 401 rather
// than proceeding unauthenticated.
func ctxRole(c echo.Context) (string, error) {
	role, _ := c.Get("role").(string)
	if role == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return role, nil
}
