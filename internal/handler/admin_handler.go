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

// RunSweep closes published tenders past their deadline and emits the
// time-based notifications. External schedulers call this endpoint,
// repeat invocations are harmless.
func RunSweep(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Running deadline sweep")

	start := time.Now()
	result, err := svc.SweepDeadlines(start)
	if err != nil {
		return writeError(c, log, err)
	}
	prometheus.RecordSweepRun(int(result.Closed), start)

	log.Info("Deadline sweep finished",
		zap.Int64("closed", result.Closed),
		zap.Int("closing_soon_notified", result.ClosingSoon),
		zap.Int("milestones_due_notified", result.MilestonesDue))
	return c.JSON(http.StatusOK, result)
}

// VerifyVendor marks a vendor verified
func VerifyVendor(c echo.Context) error {
	return setVendorFlag(c, "verify", map[string]interface{}{"is_verified": true})
}

// BlacklistVendor blocks a vendor from bidding
func BlacklistVendor(c echo.Context) error {
	return setVendorFlag(c, "blacklist", map[string]interface{}{"is_blacklisted": true})
}

// UnblacklistVendor lifts a vendor's blacklisting
func UnblacklistVendor(c echo.Context) error {
	return setVendorFlag(c, "unblacklist", map[string]interface{}{"is_blacklisted": false})
}

// setVendorFlag applies one admin flag change to a vendor.
func setVendorFlag(c echo.Context, operation string, updates map[string]interface{}) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}

	var vendor model.Vendor
	if err := database.GetDB().First(&vendor, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Model(&vendor).Updates(updates).Error; err != nil {
		log.Error("Failed to update vendor", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor flag updated",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("operation", operation))
	return c.JSON(http.StatusOK, vendor)
}

// VerifyOrganization marks an organization verified, allowing it to
// publish tenders
func VerifyOrganization(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid organization ID"})
	}

	var org model.Organization
	if err := database.GetDB().First(&org, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Organization not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Model(&org).Update("is_verified", true).Error; err != nil {
		log.Error("Failed to verify organization", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to verify organization",
		})
	}

	log.Info("Organization verified", zap.String("organization_id", org.ID.String()))
	return c.JSON(http.StatusOK, org)
}

// FeatureTender toggles a tender's featured flag
func FeatureTender(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tender ID"})
	}

	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Model(&tender).Update("is_featured", !tender.IsFeatured).Error; err != nil {
		log.Error("Failed to toggle featured flag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to toggle featured flag",
		})
	}
	tender.IsFeatured = !tender.IsFeatured

	log.Info("Tender featured flag toggled",
		zap.String("tender_id", tender.ID.String()),
		zap.Bool("is_featured", tender.IsFeatured))
	return c.JSON(http.StatusOK, tender)
}
