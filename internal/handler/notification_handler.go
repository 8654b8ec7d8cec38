package handler

import (
	"net/http"
	"strconv"
	"time"

	"tender-service/internal/model"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListNotifications retrieves the caller's notifications, newest first
func ListNotifications(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Notification{}).Where("recipient_id = ?", userID)
	if unread := c.QueryParam("unread"); unread != "" {
		if v, err := strconv.ParseBool(unread); err == nil && v {
			query = query.Where("is_read = ?", false)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var unreadCount int64
	database.GetDB().Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unreadCount)

	var notifications []model.Notification
	if err := query.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error; err != nil {
		log.Error("Failed to retrieve notifications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve notifications",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": notifications,
		"unread_count":  unreadCount,
		"pagination":    paginationMap(page, limit, total),
	})
}

// MarkNotificationRead marks one of the caller's notifications read
func MarkNotificationRead(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid notification ID"})
	}

	var notification model.Notification
	if err := database.GetDB().
		Where("id = ? AND recipient_id = ?", id, userID).
		First(&notification).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Notification not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := database.GetDB().Save(&notification).Error; err != nil {
			log.Error("Failed to mark notification read", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to mark notification read",
			})
		}
	}

	return c.JSON(http.StatusOK, notification)
}

// MarkAllNotificationsRead marks every unread notification of the
// caller read
func MarkAllNotificationsRead(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	now := time.Now()
	result := database.GetDB().Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		log.Error("Failed to mark notifications read", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to mark notifications read",
		})
	}

	log.Info("Notifications marked read",
		zap.String("user_id", userID.String()),
		zap.Int64("count", result.RowsAffected))
	return c.JSON(http.StatusOK, echo.Map{"marked_read": result.RowsAffected})
}
