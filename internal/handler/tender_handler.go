package handler

import (
	"net/http"
	"strconv"
	"time"

	"tender-service/internal/model"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenderRequest defines the structure for tender creation/update requests
type TenderRequest struct {
	TenderNumber         string     `json:"tender_number"`
	Title                string     `json:"title"`
	CategoryID           *uuid.UUID `json:"category_id"`
	Description          string     `json:"description"`
	DetailedRequirements string     `json:"detailed_requirements"`
	ProcurementMethod    string     `json:"procurement_method"`
	EstimatedValue       float64    `json:"estimated_value"`
	Currency             string     `json:"currency"`
	BidSecurityAmount    *float64   `json:"bid_security_amount"`
	SubmissionDeadline   *time.Time `json:"submission_deadline"`
	OpeningDate          *time.Time `json:"opening_date"`
	ExpectedAwardDate    *time.Time `json:"expected_award_date"`
	ContractDurationDays int        `json:"contract_duration_days"`
	ProjectLocation      string     `json:"project_location"`
	ProjectCity          string     `json:"project_city"`
	ProjectCountry       string     `json:"project_country"`
	EligibleCountries    string     `json:"eligible_countries"`
	MinimumExperience    int        `json:"minimum_experience_years"`
	MinimumTurnover      *float64   `json:"minimum_turnover"`
	RequiresPrequalify   bool       `json:"requires_prequalification"`
	ContactPerson        string     `json:"contact_person"`
	ContactEmail         string     `json:"contact_email"`
	ContactPhone         string     `json:"contact_phone"`
}

func (req *TenderRequest) toModel() *model.Tender {
	return &model.Tender{
		TenderNumber:           req.TenderNumber,
		Title:                  req.Title,
		CategoryID:             req.CategoryID,
		Description:            req.Description,
		DetailedRequirements:   req.DetailedRequirements,
		ProcurementMethod:      model.ProcurementMethod(req.ProcurementMethod),
		EstimatedValue:         req.EstimatedValue,
		Currency:               req.Currency,
		BidSecurityAmount:      req.BidSecurityAmount,
		SubmissionDeadline:     req.SubmissionDeadline,
		OpeningDate:            req.OpeningDate,
		ExpectedAwardDate:      req.ExpectedAwardDate,
		ContractDurationDays:   req.ContractDurationDays,
		ProjectLocation:        req.ProjectLocation,
		ProjectCity:            req.ProjectCity,
		ProjectCountry:         req.ProjectCountry,
		EligibleCountries:      req.EligibleCountries,
		MinimumExperienceYears: req.MinimumExperience,
		MinimumTurnover:        req.MinimumTurnover,
		RequiresPrequalify:     req.RequiresPrequalify,
		ContactPerson:          req.ContactPerson,
		ContactEmail:           req.ContactEmail,
		ContactPhone:           req.ContactPhone,
	}
}

// CreateTender creates a new draft tender for the caller's organization
func CreateTender(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new tender")
	prometheus.RecordTenderOperation("create")

	var req TenderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	orgID, ok := actorOrganizationID(c)
	if !ok {
		log.Warn("Missing organization context")
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "organization context required",
		})
	}

	tender := req.toModel()
	tender.OrganizationID = orgID
	if userID, ok := actorUserID(c); ok {
		tender.CreatedByID = &userID
	}

	log.Info("Tender creation request",
		zap.String("tender_number", req.TenderNumber),
		zap.String("title", req.Title),
		zap.String("organization_id", orgID.String()))

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.CreateTender(tender); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender created successfully",
		zap.String("tender_id", tender.ID.String()),
		zap.String("tender_number", tender.TenderNumber))
	return c.JSON(http.StatusCreated, tender)
}

// ListTenders retrieves published tenders with filters and pagination.
// Draft tenders never appear here, organizations list their own
// drafts through ListMyTenders.
func ListTenders(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing tenders with filters")
	prometheus.RecordTenderOperation("list")

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Tender{}).
		Where("status <> ?", model.TenderStatusDraft)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if categorySlug := c.QueryParam("category"); categorySlug != "" {
		var category model.TenderCategory
		if err := database.GetDB().Where("slug = ?", categorySlug).First(&category).Error; err != nil {
			log.Warn("Unknown category filter", zap.String("category", categorySlug))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		query = query.Where("category_id = ?", category.ID)
	}
	if orgSlug := c.QueryParam("organization"); orgSlug != "" {
		var org model.Organization
		if err := database.GetDB().Where("slug = ?", orgSlug).First(&org).Error; err != nil {
			log.Warn("Unknown organization filter", zap.String("organization", orgSlug))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		query = query.Where("organization_id = ?", org.ID)
	}
	if q := c.QueryParam("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(tender_number) LIKE LOWER(?)", pattern, pattern)
	}
	if location := c.QueryParam("location"); location != "" {
		pattern := "%" + location + "%"
		query = query.Where("LOWER(project_city) LIKE LOWER(?) OR LOWER(project_country) LIKE LOWER(?)", pattern, pattern)
	}
	if minValue := c.QueryParam("min_value"); minValue != "" {
		if v, err := strconv.ParseFloat(minValue, 64); err == nil {
			query = query.Where("estimated_value >= ?", v)
		}
	}
	if maxValue := c.QueryParam("max_value"); maxValue != "" {
		if v, err := strconv.ParseFloat(maxValue, 64); err == nil {
			query = query.Where("estimated_value <= ?", v)
		}
	}
	if before := c.QueryParam("deadline_before"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			query = query.Where("submission_deadline <= ?", t)
		}
	}
	if after := c.QueryParam("deadline_after"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			query = query.Where("submission_deadline >= ?", t)
		}
	}
	if featured := c.QueryParam("featured"); featured != "" {
		if v, err := strconv.ParseBool(featured); err == nil {
			query = query.Where("is_featured = ?", v)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var tenders []model.Tender
	result := query.
		Preload("Organization").
		Preload("Category").
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&tenders)
	if result.Error != nil {
		log.Error("Failed to retrieve tenders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve tenders",
		})
	}

	log.Info("Tenders retrieved successfully",
		zap.Int("count", len(tenders)),
		zap.Int64("total", total))
	return c.JSON(http.StatusOK, echo.Map{
		"tenders":    tenders,
		"pagination": paginationMap(page, limit, total),
	})
}

// ListMyTenders retrieves all tenders of the caller's organization,
// drafts included.
func ListMyTenders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("list")

	orgID, ok := actorOrganizationID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organization context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Tender{}).Where("organization_id = ?", orgID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var tenders []model.Tender
	if err := query.Preload("Category").
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&tenders).Error; err != nil {
		log.Error("Failed to retrieve tenders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve tenders",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenders":    tenders,
		"pagination": paginationMap(page, limit, total),
	})
}

// GetTender retrieves one tender by ID or slug. Draft tenders are
// visible only to their owning organization.
func GetTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	tender, err := findTenderByIDOrSlug(c.Param("id"))
	if err != nil {
		log.Warn("Tender not found", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	if tender.Status == model.TenderStatusDraft && !callerOwnsTender(c, tender) {
		log.Warn("Draft tender requested by non-owner", zap.String("tender_id", tender.ID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	svc.RecordTenderView(tender.ID)

	log.Info("Tender retrieved successfully",
		zap.String("tender_id", tender.ID.String()),
		zap.String("tender_number", tender.TenderNumber))
	return c.JSON(http.StatusOK, tender)
}

// UpdateTender updates a draft tender of the caller's organization
func UpdateTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("update")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	var req TenderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	updated, err := svc.UpdateTender(tender.ID, req.toModel())
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender updated successfully", zap.String("tender_id", updated.ID.String()))
	return c.JSON(http.StatusOK, updated)
}

// DeleteTender removes a draft tender of the caller's organization
func DeleteTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("delete")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := svc.DeleteTender(tender.ID); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender deleted successfully", zap.String("tender_id", tender.ID.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tender deleted successfully"})
}

// PublishTender opens a draft tender for bidding
func PublishTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("publish")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	published, err := svc.PublishTender(tender.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender published",
		zap.String("tender_id", published.ID.String()),
		zap.String("tender_number", published.TenderNumber))
	return c.JSON(http.StatusOK, published)
}

// CloseTender closes a published tender for bidding
func CloseTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("close")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	closed, err := svc.CloseTender(tender.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender closed", zap.String("tender_id", closed.ID.String()))
	return c.JSON(http.StatusOK, closed)
}

// CancelTenderRequest carries the mandatory cancellation reason
type CancelTenderRequest struct {
	Reason string `json:"reason"`
}

// CancelTender cancels a closed tender
func CancelTender(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("cancel")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	var req CancelTenderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	cancelled, err := svc.CancelTender(tender.ID, req.Reason)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Tender cancelled",
		zap.String("tender_id", cancelled.ID.String()),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, cancelled)
}

// AmendmentRequest defines the structure for tender amendment requests
type AmendmentRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	AffectsDeadline bool       `json:"affects_submission_deadline"`
	NewDeadline     *time.Time `json:"new_submission_deadline"`
	AffectsValue    bool       `json:"affects_estimated_value"`
	NewValue        *float64   `json:"new_estimated_value"`
	Document        string     `json:"document"`
}

// CreateAmendment appends an amendment to a published tender
func CreateAmendment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("amend")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	var req AmendmentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	amendment, err := svc.AmendTender(tender.ID, &model.TenderAmendment{
		Title:           req.Title,
		Description:     req.Description,
		AffectsDeadline: req.AffectsDeadline,
		NewDeadline:     req.NewDeadline,
		AffectsValue:    req.AffectsValue,
		NewValue:        req.NewValue,
		Document:        req.Document,
	})
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Amendment published",
		zap.String("tender_id", tender.ID.String()),
		zap.Int("amendment_number", amendment.AmendmentNumber))
	return c.JSON(http.StatusCreated, amendment)
}

// ListAmendments retrieves a tender's amendments in version order
func ListAmendments(c echo.Context) error {
	log := logger.FromContext(c)

	tender, err := findTenderByIDOrSlug(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var amendments []model.TenderAmendment
	if err := database.GetDB().
		Where("tender_id = ?", tender.ID).
		Order("amendment_number asc").
		Find(&amendments).Error; err != nil {
		log.Error("Failed to retrieve amendments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve amendments",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"amendments": amendments})
}

// TenderDocumentRequest defines the structure for document references
type TenderDocumentRequest struct {
	DocumentType string `json:"document_type"`
	Title        string `json:"title"`
	File         string `json:"file"`
	FileSize     int64  `json:"file_size"`
	Description  string `json:"description"`
	IsMandatory  *bool  `json:"is_mandatory"`
}

// AddTenderDocument attaches a document reference to a tender
func AddTenderDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenderOperation("add_document")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	var req TenderDocumentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Title == "" || req.File == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "title and file are required",
		})
	}
	if tender.Status.IsTerminal() {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "tender no longer accepts documents",
		})
	}

	document := model.TenderDocument{
		TenderID:     tender.ID,
		DocumentType: model.TenderDocumentType(req.DocumentType),
		Title:        req.Title,
		File:         req.File,
		FileSize:     req.FileSize,
		Description:  req.Description,
	}
	if req.IsMandatory != nil {
		document.IsMandatory = *req.IsMandatory
	} else {
		document.IsMandatory = true
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&document).Error; err != nil {
		log.Error("Failed to store document reference", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to store document reference",
		})
	}

	log.Info("Tender document added",
		zap.String("tender_id", tender.ID.String()),
		zap.String("document_id", document.ID.String()))
	return c.JSON(http.StatusCreated, document)
}

// ListTenderDocuments retrieves a tender's document references
func ListTenderDocuments(c echo.Context) error {
	log := logger.FromContext(c)

	tender, err := findTenderByIDOrSlug(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var documents []model.TenderDocument
	if err := database.GetDB().
		Where("tender_id = ?", tender.ID).
		Order("uploaded_at asc").
		Find(&documents).Error; err != nil {
		log.Error("Failed to retrieve documents", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve documents",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"documents": documents})
}

// findTenderByIDOrSlug loads a tender by UUID or slug with its public
// associations.
func findTenderByIDOrSlug(idOrSlug string) (*model.Tender, error) {
	query := database.GetDB().
		Preload("Organization").
		Preload("Category")
	var tender model.Tender
	if id, err := uuid.Parse(idOrSlug); err == nil {
		if err := query.First(&tender, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &tender, nil
	}
	if err := query.Where("slug = ?", idOrSlug).First(&tender).Error; err != nil {
		return nil, err
	}
	return &tender, nil
}

// callerOwnsTender reports whether the request's actor owns the tender
// or is an admin.
func callerOwnsTender(c echo.Context, tender *model.Tender) bool {
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return true
	}
	orgID, ok := actorOrganizationID(c)
	return ok && orgID == tender.OrganizationID
}

// ownedTender loads the tender from the :id parameter and enforces
// ownership. On failure the HTTP response is already written.
func ownedTender(c echo.Context, log *zap.Logger) (*model.Tender, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid tender ID", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tender ID"})
		return nil, false
	}

	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
		} else {
			log.Error("Failed to load tender", zap.Error(err))
			c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load tender"})
		}
		return nil, false
	}
	if !callerOwnsTender(c, &tender) {
		log.Warn("Tender does not belong to caller's organization",
			zap.String("tender_id", tender.ID.String()))
		c.JSON(http.StatusForbidden, echo.Map{"error": "tender belongs to another organization"})
		return nil, false
	}
	return &tender, true
}
