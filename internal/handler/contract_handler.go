package handler

import (
	"net/http"
	"time"

	"tender-service/internal/lifecycle"
	"tender-service/internal/model"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetContract retrieves one contract by ID, slug or contract number.
// Contracts are visible to the owning organization, the winning vendor
// and admins.
func GetContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	contract, err := findContract(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
	}
	if !callerSeesContract(c, contract) {
		log.Warn("Contract not visible to caller", zap.String("contract_id", contract.ID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
	}
	return c.JSON(http.StatusOK, contract)
}

// ListMyContracts retrieves the caller vendor's contracts
func ListMyContracts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("list")

	vendorID, ok := actorVendorID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Contract{}).Where("vendor_id = ?", vendorID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var contracts []model.Contract
	if err := query.Preload("Tender").
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&contracts).Error; err != nil {
		log.Error("Failed to retrieve contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve contracts",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contracts":  contracts,
		"pagination": paginationMap(page, limit, total),
	})
}

// ListOrganizationContracts retrieves contracts on the caller
// organization's tenders
func ListOrganizationContracts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("list")

	orgID, ok := actorOrganizationID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organization context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Contract{}).
		Joins("JOIN tenders ON tenders.id = contracts.tender_id").
		Where("tenders.organization_id = ?", orgID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("contracts.status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var contracts []model.Contract
	if err := query.Preload("Tender").
		Preload("Vendor").
		Order("contracts.created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&contracts).Error; err != nil {
		log.Error("Failed to retrieve contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve contracts",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contracts":  contracts,
		"pagination": paginationMap(page, limit, total),
	})
}

// SignContract records the caller's signature. The signing party is
// inferred from the actor's profile.
func SignContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("sign")

	contract, ok := visibleContract(c, log)
	if !ok {
		return nil
	}

	var party string
	if orgID, isOrg := actorOrganizationID(c); isOrg {
		if !contractBelongsToOrg(contract, orgID) && !callerIsAdmin(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "contract belongs to another organization"})
		}
		party = lifecycle.PartyOrganization
	} else if vendorID, isVendor := actorVendorID(c); isVendor {
		if contract.VendorID != vendorID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "contract belongs to another vendor"})
		}
		party = lifecycle.PartyVendor
	} else {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor or organization context required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	signed, err := svc.SignContract(contract.ID, party)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Contract signed",
		zap.String("contract_id", signed.ID.String()),
		zap.String("party", party))
	return c.JSON(http.StatusOK, signed)
}

// ActivateContract moves a fully signed contract to active
func ActivateContract(c echo.Context) error {
	return contractTransition(c, "activate", svc.ActivateContract)
}

// SuspendContract pauses an active contract
func SuspendContract(c echo.Context) error {
	return contractTransition(c, "suspend", svc.SuspendContract)
}

// ResumeContract returns a suspended contract to active
func ResumeContract(c echo.Context) error {
	return contractTransition(c, "resume", svc.ResumeContract)
}

// CompleteContract closes out an active contract
func CompleteContract(c echo.Context) error {
	return contractTransition(c, "complete", svc.CompleteContract)
}

// TerminateContract ends a contract early
func TerminateContract(c echo.Context) error {
	return contractTransition(c, "terminate", svc.TerminateContract)
}

// contractTransition runs one organization-side contract transition.
func contractTransition(c echo.Context, operation string, transition func(uuid.UUID) (*model.Contract, error)) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation(operation)

	contract, ok := orgContract(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	updated, err := transition(contract.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Contract transitioned",
		zap.String("contract_id", updated.ID.String()),
		zap.String("operation", operation),
		zap.String("status", string(updated.Status)))
	return c.JSON(http.StatusOK, updated)
}

// MilestoneRequest defines the structure for milestone creation
type MilestoneRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SequenceNumber int       `json:"sequence_number"`
	Deliverables   string    `json:"deliverables"`
	Amount         float64   `json:"amount"`
	DueDate        time.Time `json:"due_date"`
}

// CreateMilestone adds a payment milestone to a contract
func CreateMilestone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("add_milestone")

	contract, ok := orgContract(c, log)
	if !ok {
		return nil
	}

	var req MilestoneRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	milestone := model.Milestone{
		ContractID:     contract.ID,
		Title:          req.Title,
		Description:    req.Description,
		SequenceNumber: req.SequenceNumber,
		Deliverables:   req.Deliverables,
		Amount:         req.Amount,
		DueDate:        req.DueDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.CreateMilestone(&milestone); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Milestone created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("milestone_id", milestone.ID.String()),
		zap.Int("sequence_number", milestone.SequenceNumber))
	return c.JSON(http.StatusCreated, milestone)
}

// ListMilestones retrieves a contract's milestones in sequence order
func ListMilestones(c echo.Context) error {
	log := logger.FromContext(c)

	contract, ok := visibleContract(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var milestones []model.Milestone
	if err := database.GetDB().
		Where("contract_id = ?", contract.ID).
		Order("sequence_number asc").
		Find(&milestones).Error; err != nil {
		log.Error("Failed to retrieve milestones", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve milestones",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"milestones": milestones})
}

// StartMilestone moves a milestone into progress (vendor side)
func StartMilestone(c echo.Context) error {
	return vendorMilestoneTransition(c, "start_milestone", svc.StartMilestone)
}

// CompleteMilestone marks a milestone's deliverable finished (vendor
// side)
func CompleteMilestone(c echo.Context) error {
	return vendorMilestoneTransition(c, "complete_milestone", svc.CompleteMilestone)
}

// DelayMilestone flags a milestone as running late (vendor side)
func DelayMilestone(c echo.Context) error {
	return vendorMilestoneTransition(c, "delay_milestone", svc.DelayMilestone)
}

// vendorMilestoneTransition runs one vendor-side milestone transition.
func vendorMilestoneTransition(c echo.Context, operation string, transition func(uuid.UUID) (*model.Milestone, error)) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation(operation)

	milestone, contract, ok := loadMilestone(c, log)
	if !ok {
		return nil
	}
	if !callerIsAdmin(c) {
		vendorID, isVendor := actorVendorID(c)
		if !isVendor || contract.VendorID != vendorID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "milestone belongs to another vendor's contract"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	updated, err := transition(milestone.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Milestone transitioned",
		zap.String("milestone_id", updated.ID.String()),
		zap.String("operation", operation),
		zap.String("status", string(updated.Status)))
	return c.JSON(http.StatusOK, updated)
}

// VerifyMilestoneRequest carries the verification document reference
type VerifyMilestoneRequest struct {
	VerificationDocument string `json:"verification_document"`
}

// VerifyMilestone accepts a milestone's deliverable (organization side)
func VerifyMilestone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("verify_milestone")

	milestone, contract, ok := loadMilestone(c, log)
	if !ok {
		return nil
	}
	if !milestoneOrgAllowed(c, contract) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "milestone belongs to another organization's contract"})
	}

	var req VerifyMilestoneRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	verified, err := svc.VerifyMilestone(milestone.ID, req.VerificationDocument)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Milestone verified", zap.String("milestone_id", verified.ID.String()))
	return c.JSON(http.StatusOK, verified)
}

// PayMilestoneRequest carries the payment receipt reference
type PayMilestoneRequest struct {
	PaymentReceipt string `json:"payment_receipt"`
}

// PayMilestone releases payment for a verified milestone (organization
// side)
func PayMilestone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("pay_milestone")

	milestone, contract, ok := loadMilestone(c, log)
	if !ok {
		return nil
	}
	if !milestoneOrgAllowed(c, contract) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "milestone belongs to another organization's contract"})
	}

	var req PayMilestoneRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	paid, err := svc.PayMilestone(milestone.ID, req.PaymentReceipt)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Milestone paid",
		zap.String("milestone_id", paid.ID.String()),
		zap.Float64("amount", paid.Amount))
	return c.JSON(http.StatusOK, paid)
}

// ReviewRequest defines the structure for contract reviews
type ReviewRequest struct {
	QualityRating         int     `json:"quality_rating"`
	TimelinessRating      int     `json:"timeliness_rating"`
	ProfessionalismRating int     `json:"professionalism_rating"`
	OverallRating         float64 `json:"overall_rating"`
	Comment               string  `json:"comment"`
	WouldWorkAgain        bool    `json:"would_work_again"`
}

// ReviewContract records the organization's review of a completed
// contract
func ReviewContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractOperation("review")

	contract, ok := orgContract(c, log)
	if !ok {
		return nil
	}
	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	review := model.Review{
		ContractID:            contract.ID,
		ReviewerID:            userID,
		QualityRating:         req.QualityRating,
		TimelinessRating:      req.TimelinessRating,
		ProfessionalismRating: req.ProfessionalismRating,
		OverallRating:         req.OverallRating,
		Comment:               req.Comment,
		WouldWorkAgain:        req.WouldWorkAgain,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.ReviewContract(&review); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Contract reviewed",
		zap.String("contract_id", contract.ID.String()),
		zap.Float64("overall_rating", review.OverallRating))
	return c.JSON(http.StatusCreated, review)
}

// findContract loads a contract by UUID, slug or contract number.
func findContract(key string) (*model.Contract, error) {
	query := database.GetDB().
		Preload("Tender").
		Preload("WinningBid").
		Preload("Vendor")
	var contract model.Contract
	if id, err := uuid.Parse(key); err == nil {
		if err := query.First(&contract, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &contract, nil
	}
	if err := query.Where("slug = ? OR contract_number = ?", key, key).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func callerIsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// contractBelongsToOrg reports whether the contract's tender is owned
// by the organization.
func contractBelongsToOrg(contract *model.Contract, orgID uuid.UUID) bool {
	if contract.Tender != nil {
		return contract.Tender.OrganizationID == orgID
	}
	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", contract.TenderID).Error; err != nil {
		return false
	}
	return tender.OrganizationID == orgID
}

// callerSeesContract reports whether the actor may read the contract.
func callerSeesContract(c echo.Context, contract *model.Contract) bool {
	if callerIsAdmin(c) {
		return true
	}
	if vendorID, ok := actorVendorID(c); ok && vendorID == contract.VendorID {
		return true
	}
	if orgID, ok := actorOrganizationID(c); ok && contractBelongsToOrg(contract, orgID) {
		return true
	}
	return false
}

// visibleContract loads the contract from the :id parameter and
// enforces read visibility.
func visibleContract(c echo.Context, log *zap.Logger) (*model.Contract, bool) {
	contract, err := findContract(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
		return nil, false
	}
	if !callerSeesContract(c, contract) {
		log.Warn("Contract not visible to caller", zap.String("contract_id", contract.ID.String()))
		c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
		return nil, false
	}
	return contract, true
}

// orgContract loads the contract from the :id parameter and checks
// the caller's organization owns the underlying tender.
func orgContract(c echo.Context, log *zap.Logger) (*model.Contract, bool) {
	contract, err := findContract(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
		return nil, false
	}
	if callerIsAdmin(c) {
		return contract, true
	}
	orgID, ok := actorOrganizationID(c)
	if !ok || !contractBelongsToOrg(contract, orgID) {
		log.Warn("Contract does not belong to caller's organization",
			zap.String("contract_id", contract.ID.String()))
		c.JSON(http.StatusForbidden, echo.Map{"error": "contract belongs to another organization"})
		return nil, false
	}
	return contract, true
}

// milestoneOrgAllowed reports whether the actor's organization may act
// on the milestone's contract.
func milestoneOrgAllowed(c echo.Context, contract *model.Contract) bool {
	if callerIsAdmin(c) {
		return true
	}
	orgID, ok := actorOrganizationID(c)
	return ok && contractBelongsToOrg(contract, orgID)
}

// loadMilestone loads a milestone and its contract from the :id
// parameter. On failure the HTTP response is already written.
func loadMilestone(c echo.Context, log *zap.Logger) (*model.Milestone, *model.Contract, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid milestone ID", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid milestone ID"})
		return nil, nil, false
	}

	var milestone model.Milestone
	if err := database.GetDB().First(&milestone, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Milestone not found"})
		return nil, nil, false
	}
	var contract model.Contract
	if err := database.GetDB().First(&contract, "id = ?", milestone.ContractID).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Contract not found"})
		return nil, nil, false
	}
	return &milestone, &contract, true
}
