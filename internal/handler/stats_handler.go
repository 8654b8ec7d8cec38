package handler

import (
	"net/http"
	"time"

	"tender-service/internal/model"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetStats returns the public dashboard counters. Everything is
// computed from the store on each call, nothing is cached.
func GetStats(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	db := database.GetDB()

	var openTenders int64
	db.Model(&model.Tender{}).
		Where("status = ? AND submission_deadline > ?", model.TenderStatusPublished, time.Now()).
		Count(&openTenders)

	var publishedTenders int64
	db.Model(&model.Tender{}).Where("status = ?", model.TenderStatusPublished).Count(&publishedTenders)

	var awardedTenders int64
	db.Model(&model.Tender{}).Where("status = ?", model.TenderStatusAwarded).Count(&awardedTenders)

	var verifiedOrganizations int64
	db.Model(&model.Organization{}).Where("is_verified = ?", true).Count(&verifiedOrganizations)

	var verifiedVendors int64
	db.Model(&model.Vendor{}).Where("is_verified = ? AND is_blacklisted = ?", true, false).Count(&verifiedVendors)

	var activeContracts int64
	db.Model(&model.Contract{}).Where("status = ?", model.ContractStatusActive).Count(&activeContracts)

	var featured []model.Tender
	if err := db.Where("status = ? AND is_featured = ?", model.TenderStatusPublished, true).
		Preload("Organization").
		Order("submission_deadline asc").
		Limit(6).
		Find(&featured).Error; err != nil {
		log.Error("Failed to retrieve featured tenders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"open_tenders":           openTenders,
		"published_tenders":      publishedTenders,
		"awarded_tenders":        awardedTenders,
		"verified_organizations": verifiedOrganizations,
		"verified_vendors":       verifiedVendors,
		"active_contracts":       activeContracts,
		"featured_tenders":       featured,
	})
}

// GetAdminStats returns the tender status breakdown and notification
// volume for operators
func GetAdminStats(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	db := database.GetDB()

	type statusCount struct {
		Status string
		Count  int64
	}
	var tendersByStatus []statusCount
	if err := db.Model(&model.Tender{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&tendersByStatus).Error; err != nil {
		log.Error("Failed to group tenders by status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve stats",
		})
	}
	tenderBreakdown := echo.Map{}
	for _, row := range tendersByStatus {
		tenderBreakdown[row.Status] = row.Count
	}

	var bidsByStatus []statusCount
	if err := db.Model(&model.Bid{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&bidsByStatus).Error; err != nil {
		log.Error("Failed to group bids by status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve stats",
		})
	}
	bidBreakdown := echo.Map{}
	for _, row := range bidsByStatus {
		bidBreakdown[row.Status] = row.Count
	}

	var organizations int64
	db.Model(&model.Organization{}).Count(&organizations)
	var vendors int64
	db.Model(&model.Vendor{}).Count(&vendors)
	var blacklisted int64
	db.Model(&model.Vendor{}).Where("is_blacklisted = ?", true).Count(&blacklisted)
	var contracts int64
	db.Model(&model.Contract{}).Count(&contracts)
	var unreadNotifications int64
	db.Model(&model.Notification{}).Where("is_read = ?", false).Count(&unreadNotifications)

	return c.JSON(http.StatusOK, echo.Map{
		"tenders_by_status":    tenderBreakdown,
		"bids_by_status":       bidBreakdown,
		"organizations":        organizations,
		"vendors":              vendors,
		"blacklisted_vendors":  blacklisted,
		"contracts":            contracts,
		"unread_notifications": unreadNotifications,
	})
}
