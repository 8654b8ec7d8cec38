// Package handler exposes the REST surface. Read paths query the
// database directly, writes that move an entity through its lifecycle
// delegate to the lifecycle service.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tender-service/internal/apperr"
	"tender-service/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var svc *lifecycle.Service

// Init wires the lifecycle service the handlers delegate to.
func Init(s *lifecycle.Service) {
	svc = s
}

// writeError translates lifecycle errors into HTTP responses.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		log.Warn("Validation failed", zap.String("field", validation.Field), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		log.Warn("Conflicting state", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		log.Warn("Resource not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	var state *apperr.StateError
	if errors.As(err, &state) {
		log.Warn("Illegal state transition", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	log.Error("Unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// uuidParam parses a path parameter as a UUID.
func uuidParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

// parsePagination reads page/limit query parameters with defaults.
func parsePagination(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}
	return page, limit, (page - 1) * limit
}

// paginationMap builds the pagination envelope used by list responses.
func paginationMap(page, limit int, total int64) echo.Map {
	return echo.Map{
		"current_page": page,
		"limit":        limit,
		"total":        total,
		"total_pages":  (int(total) + limit - 1) / limit,
	}
}

// actorUserID returns the authenticated user ID set by AuthMiddleware.
func actorUserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("user_id").(uuid.UUID)
	return id, ok
}

// actorVendorID returns the vendor profile bound to the token.
func actorVendorID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("vendor_id").(uuid.UUID)
	return id, ok
}

// actorOrganizationID returns the organization profile bound to the
// token.
func actorOrganizationID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("organization_id").(uuid.UUID)
	return id, ok
}
