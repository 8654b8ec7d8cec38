package handler

import (
	"net/http"
	"time"

	"tender-service/pkg/database"
	"tender-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var startedAt = time.Now()

// Hello returns the service banner for the root endpoint
func Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Tender Service API is running",
		"version": "1.0.0",
	})
}

// HealthCheck reports liveness. Every request path needs the store, so
// the database ping is part of the check rather than optional.
func HealthCheck(c echo.Context) error {
	log := logger.FromContext(c)

	response := echo.Map{
		"status":         "ok",
		"time":           time.Now().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
	}

	sqlDB, err := database.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		log.Error("Health check failed", zap.Error(err))
		response["status"] = "degraded"
		response["database"] = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	response["database"] = "ok"

	return c.JSON(http.StatusOK, response)
}
