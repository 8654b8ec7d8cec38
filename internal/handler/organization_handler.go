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
)

// OrganizationRequest defines the structure for organization
// registration/update requests
type OrganizationRequest struct {
	Name               string `json:"name"`
	OrganizationType   string `json:"organization_type"`
	RegistrationNumber string `json:"registration_number"`
	TaxID              string `json:"tax_id"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Website            string `json:"website"`
	Address            string `json:"address"`
	City               string `json:"city"`
	Country            string `json:"country"`
	Logo               string `json:"logo"`
}

// RegisterOrganization creates an organization profile
func RegisterOrganization(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Registering organization")

	var req OrganizationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.RegistrationNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and registration_number are required",
		})
	}

	// Check for an existing organization with the same registration
	var count int64
	database.GetDB().Model(&model.Organization{}).
		Where("registration_number = ?", req.RegistrationNumber).
		Count(&count)
	if count > 0 {
		log.Warn("Organization already exists",
			zap.String("registration_number", req.RegistrationNumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "organization with this registration number already exists",
		})
	}

	org := model.Organization{
		Name:               req.Name,
		OrganizationType:   model.OrganizationType(req.OrganizationType),
		RegistrationNumber: req.RegistrationNumber,
		TaxID:              req.TaxID,
		Email:              req.Email,
		Phone:              req.Phone,
		Website:            req.Website,
		Address:            req.Address,
		City:               req.City,
		Country:            req.Country,
		Logo:               req.Logo,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&org).Error; err != nil {
		log.Error("Failed to create organization", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create organization",
		})
	}

	log.Info("Organization registered successfully",
		zap.String("organization_id", org.ID.String()),
		zap.String("name", org.Name))
	return c.JSON(http.StatusCreated, org)
}

// GetOrganization retrieves one organization by ID or slug, together
// with its published tenders
func GetOrganization(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var org model.Organization
	key := c.Param("id")
	if id, err := uuid.Parse(key); err == nil {
		if err := database.GetDB().First(&org, "id = ?", id).Error; err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Organization not found"})
		}
	} else if err := database.GetDB().Where("slug = ?", key).First(&org).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Organization not found"})
	}

	var tenders []model.Tender
	if err := database.GetDB().
		Where("organization_id = ? AND status <> ?", org.ID, model.TenderStatusDraft).
		Order("created_at desc").
		Limit(20).
		Find(&tenders).Error; err != nil {
		log.Error("Failed to retrieve organization tenders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve organization tenders",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"organization": org,
		"tenders":      tenders,
	})
}

// ListOrganizations retrieves organizations with pagination
func ListOrganizations(c echo.Context) error {
	log := logger.FromContext(c)

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Organization{})
	if orgType := c.QueryParam("type"); orgType != "" {
		query = query.Where("organization_type = ?", orgType)
	}
	if verified := c.QueryParam("verified"); verified != "" {
		if v, err := strconv.ParseBool(verified); err == nil {
			query = query.Where("is_verified = ?", v)
		}
	}
	if q := c.QueryParam("q"); q != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+q+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var orgs []model.Organization
	if err := query.Order("name asc").
		Limit(limit).
		Offset(offset).
		Find(&orgs).Error; err != nil {
		log.Error("Failed to retrieve organizations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve organizations",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"organizations": orgs,
		"pagination":    paginationMap(page, limit, total),
	})
}

// UpdateOrganization updates the caller's organization profile
func UpdateOrganization(c echo.Context) error {
	log := logger.FromContext(c)

	orgID, ok := actorOrganizationID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organization context required"})
	}

	var req OrganizationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var org model.Organization
	if err := database.GetDB().First(&org, "id = ?", orgID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Organization not found"})
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.OrganizationType != "" {
		org.OrganizationType = model.OrganizationType(req.OrganizationType)
	}
	if req.TaxID != "" {
		org.TaxID = req.TaxID
	}
	if req.Email != "" {
		org.Email = req.Email
	}
	if req.Phone != "" {
		org.Phone = req.Phone
	}
	if req.Website != "" {
		org.Website = req.Website
	}
	if req.Address != "" {
		org.Address = req.Address
	}
	if req.City != "" {
		org.City = req.City
	}
	if req.Country != "" {
		org.Country = req.Country
	}
	if req.Logo != "" {
		org.Logo = req.Logo
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Save(&org).Error; err != nil {
		log.Error("Failed to update organization", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update organization",
		})
	}

	log.Info("Organization updated successfully", zap.String("organization_id", org.ID.String()))
	return c.JSON(http.StatusOK, org)
}
