package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

// ctxAccountID extracts the account identity injected by the Auth
// middleware; its presence proves the middleware ran.
func ctxAccountID(c echo.Context) (string, error) {
	id, _ := c.Get("account_id").(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// requestMeta captures the caller's address and agent for the audit trail.
func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
