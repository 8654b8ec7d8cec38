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

// VendorRequest defines the structure for vendor registration/update
// requests
type VendorRequest struct {
	CompanyName        string      `json:"company_name"`
	BusinessType       string      `json:"business_type"`
	RegistrationNumber string      `json:"registration_number"`
	TaxID              string      `json:"tax_id"`
	Email              string      `json:"email"`
	Phone              string      `json:"phone"`
	Website            string      `json:"website"`
	Address            string      `json:"address"`
	City               string      `json:"city"`
	Country            string      `json:"country"`
	PostalCode         string      `json:"postal_code"`
	YearEstablished    int         `json:"year_established"`
	NumberOfEmployees  int         `json:"number_of_employees"`
	AnnualTurnover     float64     `json:"annual_turnover"`
	ServiceAreas       string      `json:"service_areas"`
	CategoryIDs        []uuid.UUID `json:"category_ids"`
}

// RegisterVendor creates a vendor profile for the authenticated user
func RegisterVendor(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Registering vendor")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.CompanyName == "" || req.RegistrationNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "company_name and registration_number are required",
		})
	}

	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// One vendor profile per user, one profile per registration number
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("user_id = ? OR registration_number = ?", userID, req.RegistrationNumber).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor profile already exists",
			zap.String("registration_number", req.RegistrationNumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "vendor profile already exists",
		})
	}

	vendor := model.Vendor{
		UserID:             &userID,
		CompanyName:        req.CompanyName,
		BusinessType:       model.BusinessType(req.BusinessType),
		RegistrationNumber: req.RegistrationNumber,
		TaxID:              req.TaxID,
		Email:              req.Email,
		Phone:              req.Phone,
		Website:            req.Website,
		Address:            req.Address,
		City:               req.City,
		Country:            req.Country,
		PostalCode:         req.PostalCode,
		YearEstablished:    req.YearEstablished,
		NumberOfEmployees:  req.NumberOfEmployees,
		AnnualTurnover:     req.AnnualTurnover,
		ServiceAreas:       req.ServiceAreas,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&vendor).Error; err != nil {
		log.Error("Failed to create vendor", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	if len(req.CategoryIDs) > 0 {
		if err := replaceVendorCategories(&vendor, req.CategoryIDs); err != nil {
			log.Error("Failed to assign vendor categories", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to assign vendor categories",
			})
		}
	}

	log.Info("Vendor registered successfully",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("company_name", vendor.CompanyName))
	return c.JSON(http.StatusCreated, vendor)
}

// GetVendor retrieves one vendor by ID or slug
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Preload("Categories")
	var vendor model.Vendor
	key := c.Param("id")
	if id, err := uuid.Parse(key); err == nil {
		if err := query.First(&vendor, "id = ?", id).Error; err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
		}
	} else if err := query.Where("slug = ?", key).First(&vendor).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	log.Info("Vendor retrieved successfully", zap.String("vendor_id", vendor.ID.String()))
	return c.JSON(http.StatusOK, vendor)
}

// ListVendors retrieves vendors with filters and pagination
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Vendor{})
	if verified := c.QueryParam("verified"); verified != "" {
		if v, err := strconv.ParseBool(verified); err == nil {
			query = query.Where("is_verified = ?", v)
		}
	}
	if categorySlug := c.QueryParam("category"); categorySlug != "" {
		var category model.TenderCategory
		if err := database.GetDB().Where("slug = ?", categorySlug).First(&category).Error; err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		query = query.
			Joins("JOIN vendor_categories vc ON vc.vendor_id = vendors.id").
			Where("vc.tender_category_id = ?", category.ID)
	}
	if q := c.QueryParam("q"); q != "" {
		query = query.Where("LOWER(company_name) LIKE LOWER(?)", "%"+q+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var vendors []model.Vendor
	if err := query.Order("rating desc, company_name asc").
		Limit(limit).
		Offset(offset).
		Find(&vendors).Error; err != nil {
		log.Error("Failed to retrieve vendors", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"vendors":    vendors,
		"pagination": paginationMap(page, limit, total),
	})
}

// UpdateVendor updates the caller's vendor profile
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)

	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var vendor model.Vendor
	if err := database.GetDB().First(&vendor, "id = ?", vendorID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	if req.CompanyName != "" {
		vendor.CompanyName = req.CompanyName
	}
	if req.BusinessType != "" {
		vendor.BusinessType = model.BusinessType(req.BusinessType)
	}
	if req.TaxID != "" {
		vendor.TaxID = req.TaxID
	}
	if req.Email != "" {
		vendor.Email = req.Email
	}
	if req.Phone != "" {
		vendor.Phone = req.Phone
	}
	if req.Website != "" {
		vendor.Website = req.Website
	}
	if req.Address != "" {
		vendor.Address = req.Address
	}
	if req.City != "" {
		vendor.City = req.City
	}
	if req.Country != "" {
		vendor.Country = req.Country
	}
	if req.PostalCode != "" {
		vendor.PostalCode = req.PostalCode
	}
	if req.YearEstablished > 0 {
		vendor.YearEstablished = req.YearEstablished
	}
	if req.NumberOfEmployees > 0 {
		vendor.NumberOfEmployees = req.NumberOfEmployees
	}
	if req.AnnualTurnover > 0 {
		vendor.AnnualTurnover = req.AnnualTurnover
	}
	if req.ServiceAreas != "" {
		vendor.ServiceAreas = req.ServiceAreas
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Save(&vendor).Error; err != nil {
		log.Error("Failed to update vendor", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	if req.CategoryIDs != nil {
		if err := replaceVendorCategories(&vendor, req.CategoryIDs); err != nil {
			log.Error("Failed to update vendor categories", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update vendor categories",
			})
		}
	}

	log.Info("Vendor updated successfully", zap.String("vendor_id", vendor.ID.String()))
	return c.JSON(http.StatusOK, vendor)
}

// replaceVendorCategories swaps the vendor's category registrations.
func replaceVendorCategories(vendor *model.Vendor, categoryIDs []uuid.UUID) error {
	var categories []model.TenderCategory
	if len(categoryIDs) > 0 {
		if err := database.GetDB().Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
			return err
		}
	}
	return database.GetDB().Model(vendor).Association("Categories").Replace(categories)
}
