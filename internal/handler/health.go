package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Root answers GET / so a browser hitting the API host sees it is up.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "Backend API is running successfully!")
}

// Health is the probe endpoint for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
