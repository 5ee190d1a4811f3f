package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hostscout/concierge/pkg/database"
)

// HealthCheck reports service liveness and database reachability
func HealthCheck(c echo.Context) error {
	if err := database.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"database": "connected",
	})
}
