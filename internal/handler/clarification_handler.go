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

// ClarificationRequest defines the structure for asking a
// clarification
type ClarificationRequest struct {
	Question string `json:"question"`
	IsPublic *bool  `json:"is_public"`
}

// AskClarification records the caller vendor's question on a tender
func AskClarification(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Asking clarification")

	tenderID, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tender ID"})
	}
	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	var req ClarificationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	clarification := model.Clarification{
		TenderID: tenderID,
		VendorID: vendorID,
		Question: req.Question,
		IsPublic: true,
	}
	if req.IsPublic != nil {
		clarification.IsPublic = *req.IsPublic
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.AskClarification(&clarification); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Clarification asked",
		zap.String("tender_id", tenderID.String()),
		zap.String("clarification_id", clarification.ID.String()))
	return c.JSON(http.StatusCreated, clarification)
}

// AnswerClarificationRequest carries the organization's answer
type AnswerClarificationRequest struct {
	Answer string `json:"answer"`
}

// AnswerClarification publishes the answer to a vendor question
func AnswerClarification(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid clarification ID"})
	}

	var clarification model.Clarification
	if err := database.GetDB().First(&clarification, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Clarification not found"})
	}
	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", clarification.TenderID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}
	if !callerOwnsTender(c, &tender) {
		log.Warn("Clarification belongs to another organization's tender",
			zap.String("clarification_id", id.String()))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "clarification belongs to another organization's tender"})
	}

	var req AnswerClarificationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	answered, err := svc.AnswerClarification(id, req.Answer)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Clarification answered", zap.String("clarification_id", answered.ID.String()))
	return c.JSON(http.StatusOK, answered)
}

// ListClarifications retrieves a tender's clarifications. Anonymous
// callers see answered public questions, the owning organization sees
// everything and a vendor additionally sees their own questions.
func ListClarifications(c echo.Context) error {
	log := logger.FromContext(c)

	tender, err := findTenderByIDOrSlug(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	query := database.GetDB().
		Where("tender_id = ?", tender.ID).
		Order("asked_at desc")
	if !callerOwnsTender(c, tender) {
		if vendorID, ok := actorVendorID(c); ok {
			query = query.Where("(is_public = ? AND is_answered = ?) OR vendor_id = ?", true, true, vendorID)
		} else {
			query = query.Where("is_public = ? AND is_answered = ?", true, true)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var clarifications []model.Clarification
	if err := query.Find(&clarifications).Error; err != nil {
		log.Error("Failed to retrieve clarifications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve clarifications",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"clarifications": clarifications})
}
