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

// BidRequest defines the structure for bid submission requests
type BidRequest struct {
	Amount               float64  `json:"bid_amount"`
	Currency             string   `json:"currency"`
	TechnicalProposal    string   `json:"technical_proposal"`
	FinancialProposal    string   `json:"financial_proposal"`
	DeliveryTimelineDays int      `json:"delivery_timeline_days"`
	BidSecurityReference string   `json:"bid_security_reference"`
	BidSecurityAmount    *float64 `json:"bid_security_amount"`
}

// SubmitBid submits the caller vendor's bid on a tender
func SubmitBid(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Submitting bid")
	prometheus.RecordBidOperation("submit")

	tenderID, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid tender ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid tender ID"})
	}
	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	var req BidRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	bid := model.Bid{
		TenderID:             tenderID,
		VendorID:             vendorID,
		Amount:               req.Amount,
		Currency:             req.Currency,
		TechnicalProposal:    req.TechnicalProposal,
		FinancialProposal:    req.FinancialProposal,
		DeliveryTimelineDays: req.DeliveryTimelineDays,
		BidSecurityReference: req.BidSecurityReference,
		BidSecurityAmount:    req.BidSecurityAmount,
	}

	log.Info("Bid submission request",
		zap.String("tender_id", tenderID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Float64("amount", req.Amount))

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.SubmitBid(&bid); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Bid submitted successfully",
		zap.String("bid_id", bid.ID.String()),
		zap.String("bid_number", bid.BidNumber))
	return c.JSON(http.StatusCreated, bid)
}

// WithdrawBid withdraws the caller vendor's bid before the deadline
func WithdrawBid(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("withdraw")

	bidID, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid bid ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bid ID"})
	}
	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	bid, err := svc.WithdrawBid(bidID, vendorID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Bid withdrawn", zap.String("bid_id", bid.ID.String()))
	return c.JSON(http.StatusOK, bid)
}

// BidDocumentRequest defines the structure for bid document references
type BidDocumentRequest struct {
	DocumentType string `json:"document_type"`
	Title        string `json:"title"`
	File         string `json:"file"`
	Description  string `json:"description"`
}

// AddBidDocument attaches a document reference to the caller's bid
// while the tender is still open.
func AddBidDocument(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("add_document")

	bidID, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bid ID"})
	}
	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	var req BidDocumentRequest
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

	var bid model.Bid
	if err := database.GetDB().Preload("Tender").First(&bid, "id = ?", bidID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bid not found"})
	}
	if bid.VendorID != vendorID {
		log.Warn("Bid belongs to another vendor", zap.String("bid_id", bidID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bid not found"})
	}
	if bid.Tender == nil || !bid.Tender.AcceptingBids(time.Now()) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "tender no longer accepts bid documents",
		})
	}

	document := model.BidDocument{
		BidID:        bid.ID,
		DocumentType: model.BidDocumentType(req.DocumentType),
		Title:        req.Title,
		File:         req.File,
		Description:  req.Description,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&document).Error; err != nil {
		log.Error("Failed to store document reference", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to store document reference",
		})
	}

	log.Info("Bid document added",
		zap.String("bid_id", bid.ID.String()),
		zap.String("document_id", document.ID.String()))
	return c.JSON(http.StatusCreated, document)
}

// GetBid retrieves one bid. Vendors see their own bids, organizations
// see bids on their tenders, admins see all.
func GetBid(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("get")

	bidID, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bid ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var bid model.Bid
	if err := database.GetDB().
		Preload("Tender").
		Preload("Vendor").
		Preload("Documents").
		First(&bid, "id = ?", bidID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bid not found"})
	}

	if !callerSeesBid(c, &bid) {
		log.Warn("Bid not visible to caller", zap.String("bid_id", bidID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Bid not found"})
	}

	return c.JSON(http.StatusOK, bid)
}

// ListMyBids retrieves the caller vendor's bids
func ListMyBids(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("list")

	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Bid{}).Where("vendor_id = ?", vendorID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var bids []model.Bid
	if err := query.Preload("Tender").
		Order("submitted_at desc").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error; err != nil {
		log.Error("Failed to retrieve bids", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve bids",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"bids":       bids,
		"pagination": paginationMap(page, limit, total),
	})
}

// ListReceivedBids retrieves bids on the caller organization's tenders
func ListReceivedBids(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("list")

	orgID, ok := actorOrganizationID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organization context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Bid{}).
		Joins("JOIN tenders ON tenders.id = bids.tender_id").
		Where("tenders.organization_id = ?", orgID)
	if tenderID := c.QueryParam("tender_id"); tenderID != "" {
		query = query.Where("bids.tender_id = ?", tenderID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("bids.status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var bids []model.Bid
	if err := query.Preload("Tender").
		Preload("Vendor").
		Order("bids.submitted_at desc").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error; err != nil {
		log.Error("Failed to retrieve bids", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve bids",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"bids":       bids,
		"pagination": paginationMap(page, limit, total),
	})
}

// RankTenderBids returns the tender's bids ordered best first
func RankTenderBids(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("rank")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	bids, err := svc.RankBids(tender.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tender_id": tender.ID,
		"bids":      bids,
	})
}

// callerSeesBid reports whether the actor may read the bid.
func callerSeesBid(c echo.Context, bid *model.Bid) bool {
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		return true
	}
	if vendorID, ok := actorVendorID(c); ok && vendorID == bid.VendorID {
		return true
	}
	if orgID, ok := actorOrganizationID(c); ok && bid.Tender != nil && orgID == bid.Tender.OrganizationID {
		return true
	}
	return false
}
