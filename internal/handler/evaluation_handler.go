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

// EvaluationRequest defines the structure for starting an evaluation
type EvaluationRequest struct {
	TechnicalCriteria string `json:"technical_criteria"`
	FinancialCriteria string `json:"financial_criteria"`
}

// StartEvaluation opens an evaluation round on a closed tender
func StartEvaluation(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Starting evaluation")
	prometheus.RecordBidOperation("evaluate")

	tender, ok := ownedTender(c, log)
	if !ok {
		return nil
	}
	userID, ok := actorUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req EvaluationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	evaluation, err := svc.StartEvaluation(tender.ID, userID, req.TechnicalCriteria, req.FinancialCriteria)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Evaluation started",
		zap.String("tender_id", tender.ID.String()),
		zap.String("evaluation_id", evaluation.ID.String()))
	return c.JSON(http.StatusCreated, evaluation)
}

// GetEvaluation retrieves an evaluation with its per-bid scores
func GetEvaluation(c echo.Context) error {
	log := logger.FromContext(c)

	evaluation, ok := ownedEvaluation(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	if err := database.GetDB().
		Preload("BidEvaluations").
		First(evaluation, "id = ?", evaluation.ID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Evaluation not found"})
	}
	return c.JSON(http.StatusOK, evaluation)
}

// ScoreBidRequest defines the structure for scoring a bid
type ScoreBidRequest struct {
	BidID           uuid.UUID `json:"bid_id"`
	TechnicalScores string    `json:"technical_scores"`
	TechnicalScore  float64   `json:"technical_score"`
	FinancialScore  float64   `json:"financial_score"`
	TotalScore      float64   `json:"total_score"`
	Remarks         string    `json:"remarks"`
	Recommendation  string    `json:"recommendation"`
}

// ScoreBid records evaluator scores for one bid in an evaluation
func ScoreBid(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("score")

	evaluation, ok := ownedEvaluation(c, log)
	if !ok {
		return nil
	}

	var req ScoreBidRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.BidID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bid_id is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	score, err := svc.ScoreBid(evaluation.ID, req.BidID, &model.BidEvaluation{
		TechnicalScores: req.TechnicalScores,
		TechnicalScore:  req.TechnicalScore,
		FinancialScore:  req.FinancialScore,
		TotalScore:      req.TotalScore,
		Remarks:         req.Remarks,
		Recommendation:  model.Recommendation(req.Recommendation),
	})
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Bid scored",
		zap.String("evaluation_id", evaluation.ID.String()),
		zap.String("bid_id", req.BidID.String()),
		zap.Float64("total_score", score.TotalScore))
	return c.JSON(http.StatusCreated, score)
}

// CompleteEvaluationRequest carries optional closing notes
type CompleteEvaluationRequest struct {
	Notes string `json:"notes"`
}

// CompleteEvaluation freezes an evaluation round
func CompleteEvaluation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("evaluate")

	evaluation, ok := ownedEvaluation(c, log)
	if !ok {
		return nil
	}

	var req CompleteEvaluationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	completed, err := svc.CompleteEvaluation(evaluation.ID, req.Notes)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Evaluation completed", zap.String("evaluation_id", completed.ID.String()))
	return c.JSON(http.StatusOK, completed)
}

// DecideBid shortlists or rejects a scored bid
func DecideBid(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBidOperation("decide")

	bid, ok := ownedBid(c, log)
	if !ok {
		return nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	decided, err := svc.DecideBid(bid.ID)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Bid decided",
		zap.String("bid_id", decided.ID.String()),
		zap.String("status", string(decided.Status)))
	return c.JSON(http.StatusOK, decided)
}

// AwardBidRequest defines the contract terms fixed at award time
type AwardBidRequest struct {
	StartDate             *time.Time `json:"start_date"`
	TermsAndConditions    string     `json:"terms_and_conditions"`
	PerformanceBondAmount *float64   `json:"performance_bond_amount"`
	RetentionPercentage   *float64   `json:"retention_percentage"`
}

// AwardBid awards a shortlisted bid and creates the draft contract
func AwardBid(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Awarding bid")
	prometheus.RecordBidOperation("award")
	prometheus.RecordContractOperation("create")

	bid, ok := ownedBid(c, log)
	if !ok {
		return nil
	}

	var req AwardBidRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	input := lifecycle.AwardInput{
		TermsAndConditions:    req.TermsAndConditions,
		PerformanceBondAmount: req.PerformanceBondAmount,
		RetentionPercentage:   req.RetentionPercentage,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	awarded, contract, err := svc.AwardBid(bid.ID, input)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Bid awarded",
		zap.String("bid_id", awarded.ID.String()),
		zap.String("contract_id", contract.ID.String()),
		zap.String("contract_number", contract.ContractNumber))
	return c.JSON(http.StatusCreated, echo.Map{
		"bid":      awarded,
		"contract": contract,
	})
}

// ownedEvaluation loads the evaluation from the :id parameter and
// checks the caller owns the evaluated tender.
func ownedEvaluation(c echo.Context, log *zap.Logger) (*model.Evaluation, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid evaluation ID", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid evaluation ID"})
		return nil, false
	}

	var evaluation model.Evaluation
	if err := database.GetDB().First(&evaluation, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Evaluation not found"})
		return nil, false
	}

	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", evaluation.TenderID).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
		return nil, false
	}
	if !callerOwnsTender(c, &tender) {
		log.Warn("Evaluation does not belong to caller's organization",
			zap.String("evaluation_id", evaluation.ID.String()))
		c.JSON(http.StatusForbidden, echo.Map{"error": "evaluation belongs to another organization"})
		return nil, false
	}
	return &evaluation, true
}

// ownedBid loads the bid from the :id parameter and checks the caller
// owns the tender it was submitted on.
func ownedBid(c echo.Context, log *zap.Logger) (*model.Bid, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		log.Error("Invalid bid ID", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bid ID"})
		return nil, false
	}

	var bid model.Bid
	if err := database.GetDB().First(&bid, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Bid not found"})
		return nil, false
	}

	var tender model.Tender
	if err := database.GetDB().First(&tender, "id = ?", bid.TenderID).Error; err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "Tender not found"})
		return nil, false
	}
	if !callerOwnsTender(c, &tender) {
		log.Warn("Bid's tender does not belong to caller's organization",
			zap.String("bid_id", bid.ID.String()))
		c.JSON(http.StatusForbidden, echo.Map{"error": "bid belongs to another organization's tender"})
		return nil, false
	}
	return &bid, true
}
