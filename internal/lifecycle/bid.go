package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"tender-service/internal/apperr"
	"tender-service/internal/model"
	"tender-service/internal/notify"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SubmitBid validates and stores a vendor's bid on a published tender.
// The submission window is checked against the wall clock, so a tender
// already swept past its deadline rejects the bid even if its status
// row has not been updated yet.
func (s *Service) SubmitBid(b *model.Bid) error {
	if b.Amount <= 0 {
		return apperr.Validation("bid_amount", "must be greater than zero")
	}
	if b.DeliveryTimelineDays < 0 {
		return apperr.Validation("delivery_timeline_days", "must not be negative")
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		var tender model.Tender
		if err := tx.First(&tender, "id = ?", b.TenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusPublished {
			return apperr.StateOp("tender", string(tender.Status))
		}
		if !tender.AcceptingBids(now) {
			return apperr.Validation("submission_deadline", "has passed")
		}

		var vendor model.Vendor
		if err := tx.First(&vendor, "id = ?", b.VendorID).Error; err != nil {
			return notFoundOr(err, "vendor")
		}
		if !vendor.IsVerified {
			return apperr.Validation("vendor", "must be verified to submit bids")
		}
		if vendor.IsBlacklisted {
			return apperr.Validation("vendor", "is blacklisted and cannot submit bids")
		}

		var live int64
		tx.Model(&model.Bid{}).
			Where("tender_id = ? AND vendor_id = ? AND status <> ?",
				b.TenderID, b.VendorID, model.BidStatusWithdrawn).
			Count(&live)
		if live > 0 {
			return apperr.Conflict("bid", "vendor already holds an active bid on this tender")
		}

		var sequence int64
		tx.Model(&model.Bid{}).Where("tender_id = ?", b.TenderID).Count(&sequence)
		b.BidNumber = fmt.Sprintf("BID-%s-%03d", tender.TenderNumber, sequence+1)
		b.Slug = slug.Make(fmt.Sprintf("%s-%s-%03d", vendor.CompanyName, tender.TenderNumber, sequence+1))
		b.Status = model.BidStatusSubmitted
		b.SubmittedAt = now
		b.TechnicalScore = nil
		b.FinancialScore = nil
		b.TotalScore = nil
		b.ReviewedAt = nil

		if err := tx.Create(b).Error; err != nil {
			return conflictOr(err, "bid", "vendor already holds an active bid on this tender")
		}

		if tender.CreatedByID == nil {
			return nil
		}
		return s.dispatcher.Dispatch(tx, notify.Event{
			Recipient: *tender.CreatedByID,
			Type:      model.NotifyBidSubmitted,
			Reference: b.ID,
			Title:     fmt.Sprintf("New bid on %s", tender.TenderNumber),
			Message:   fmt.Sprintf("%s submitted bid %s", vendor.CompanyName, b.BidNumber),
			Link:      "/api/bids/" + b.Slug,
		})
	})
}

// WithdrawBid retires a submitted bid before the tender deadline. The
// vendor check treats bids owned by others as absent.
func (s *Service) WithdrawBid(bidID, vendorID uuid.UUID) (*model.Bid, error) {
	var bid model.Bid
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			return notFoundOr(err, "bid")
		}
		if bid.VendorID != vendorID {
			return apperr.NotFound("bid")
		}
		if !bid.Status.CanTransition(model.BidStatusWithdrawn) {
			return apperr.State("bid", string(bid.Status), string(model.BidStatusWithdrawn))
		}

		var tender model.Tender
		if err := tx.First(&tender, "id = ?", bid.TenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.SubmissionDeadline == nil || !time.Now().Before(*tender.SubmissionDeadline) {
			return apperr.Validation("submission_deadline", "has passed, the bid can no longer be withdrawn")
		}

		bid.Status = model.BidStatusWithdrawn
		return tx.Save(&bid).Error
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// StartEvaluation opens an evaluation round on a closed tender and
// moves its submitted bids under evaluation.
func (s *Service) StartEvaluation(tenderID, evaluatorID uuid.UUID, technicalCriteria, financialCriteria string) (*model.Evaluation, error) {
	evaluation := model.Evaluation{
		TenderID:          tenderID,
		EvaluatorID:       evaluatorID,
		TechnicalCriteria: technicalCriteria,
		FinancialCriteria: financialCriteria,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tender model.Tender
		if err := tx.First(&tender, "id = ?", tenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusClosed {
			return apperr.StateOp("tender", string(tender.Status))
		}
		if err := tx.Create(&evaluation).Error; err != nil {
			return err
		}
		return tx.Model(&model.Bid{}).
			Where("tender_id = ? AND status = ?", tenderID, model.BidStatusSubmitted).
			Update("status", model.BidStatusUnderEvaluation).Error
	})
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// ScoreBid records an evaluator's scores for one bid and refreshes the
// bid's aggregate scores across all evaluations.
func (s *Service) ScoreBid(evaluationID, bidID uuid.UUID, input *model.BidEvaluation) (*model.BidEvaluation, error) {
	if input.TechnicalScore < 0 || input.TechnicalScore > 100 {
		return nil, apperr.Validation("technical_score", "must be between 0 and 100")
	}
	if input.FinancialScore < 0 || input.FinancialScore > 100 {
		return nil, apperr.Validation("financial_score", "must be between 0 and 100")
	}
	if input.TotalScore < 0 || input.TotalScore > 100 {
		return nil, apperr.Validation("total_score", "must be between 0 and 100")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var evaluation model.Evaluation
		if err := tx.First(&evaluation, "id = ?", evaluationID).Error; err != nil {
			return notFoundOr(err, "evaluation")
		}
		if evaluation.IsCompleted {
			return apperr.StateOp("evaluation", "completed")
		}

		var bid model.Bid
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			return notFoundOr(err, "bid")
		}
		if bid.TenderID != evaluation.TenderID {
			return apperr.Validation("bid_id", "does not belong to the evaluated tender")
		}
		if bid.Status != model.BidStatusUnderEvaluation {
			return apperr.StateOp("bid", string(bid.Status))
		}

		var count int64
		tx.Model(&model.BidEvaluation{}).
			Where("evaluation_id = ? AND bid_id = ?", evaluationID, bidID).
			Count(&count)
		if count > 0 {
			return apperr.Conflict("bid evaluation", "this bid is already scored in this evaluation")
		}

		input.EvaluationID = evaluationID
		input.BidID = bidID
		if input.TotalScore == 0 {
			input.TotalScore = (input.TechnicalScore + input.FinancialScore) / 2
		}
		if err := tx.Create(input).Error; err != nil {
			return err
		}
		return refreshBidScores(tx, &bid)
	})
	if err != nil {
		return nil, err
	}
	return input, nil
}

// CompleteEvaluation freezes an evaluation round.
func (s *Service) CompleteEvaluation(evaluationID uuid.UUID, notes string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&evaluation, "id = ?", evaluationID).Error; err != nil {
			return notFoundOr(err, "evaluation")
		}
		if evaluation.IsCompleted {
			return apperr.StateOp("evaluation", "completed")
		}
		evaluation.IsCompleted = true
		if notes != "" {
			evaluation.Notes = notes
		}
		return tx.Save(&evaluation).Error
	})
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// DecideBid shortlists or rejects an evaluated bid against the
// configured score threshold and notifies the vendor.
func (s *Service) DecideBid(bidID uuid.UUID) (*model.Bid, error) {
	var bid model.Bid
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			return notFoundOr(err, "bid")
		}
		if bid.Status != model.BidStatusUnderEvaluation {
			return apperr.StateOp("bid", string(bid.Status))
		}
		if bid.TotalScore == nil {
			return apperr.Validation("total_score", "bid has not been scored yet")
		}

		next := model.BidStatusRejected
		if *bid.TotalScore >= s.cfg.Evaluation.ShortlistThreshold {
			next = model.BidStatusShortlisted
		}
		if !bid.Status.CanTransition(next) {
			return apperr.State("bid", string(bid.Status), string(next))
		}
		bid.Status = next
		if err := tx.Save(&bid).Error; err != nil {
			return err
		}
		return s.notifyBidStatus(tx, &bid)
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// RankBids returns a tender's non-withdrawn bids ordered best first.
// Ties on total score break on technical score, then on the earlier
// submission. Unscored bids sort last.
func (s *Service) RankBids(tenderID uuid.UUID) ([]model.Bid, error) {
	var tender model.Tender
	if err := s.db.First(&tender, "id = ?", tenderID).Error; err != nil {
		return nil, notFoundOr(err, "tender")
	}
	var bids []model.Bid
	err := s.db.Preload("Vendor").
		Where("tender_id = ? AND status <> ?", tenderID, model.BidStatusWithdrawn).
		Order("COALESCE(total_score, -1) DESC, COALESCE(technical_score, -1) DESC, submitted_at ASC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// AwardInput carries the contract terms fixed at award time.
type AwardInput struct {
	StartDate             time.Time
	TermsAndConditions    string
	PerformanceBondAmount *float64
	RetentionPercentage   *float64
}

// AwardBid awards a shortlisted bid. In the same transaction the other
// live bids are rejected, the tender moves to awarded and a draft
// contract is created from the winning bid's terms.
func (s *Service) AwardBid(bidID uuid.UUID, input AwardInput) (*model.Bid, *model.Contract, error) {
	var bid model.Bid
	var contract model.Contract
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			return notFoundOr(err, "bid")
		}
		if !bid.Status.CanTransition(model.BidStatusAwarded) {
			return apperr.State("bid", string(bid.Status), string(model.BidStatusAwarded))
		}

		var tender model.Tender
		if err := tx.First(&tender, "id = ?", bid.TenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if !tender.Status.CanTransition(model.TenderStatusAwarded) {
			return apperr.State("tender", string(tender.Status), string(model.TenderStatusAwarded))
		}

		var vendor model.Vendor
		if err := tx.First(&vendor, "id = ?", bid.VendorID).Error; err != nil {
			return notFoundOr(err, "vendor")
		}

		duration := bid.DeliveryTimelineDays
		if duration <= 0 {
			duration = tender.ContractDurationDays
		}
		if duration <= 0 {
			return apperr.Validation("duration_days", "neither the bid nor the tender carries a contract duration")
		}

		bid.Status = model.BidStatusAwarded
		if err := tx.Save(&bid).Error; err != nil {
			return conflictOr(err, "bid", "tender already has an awarded bid")
		}

		var losers []model.Bid
		if err := tx.Where("tender_id = ? AND id <> ? AND status IN ?",
			bid.TenderID, bid.ID, []model.BidStatus{
				model.BidStatusSubmitted,
				model.BidStatusUnderEvaluation,
				model.BidStatusShortlisted,
			}).Find(&losers).Error; err != nil {
			return err
		}
		if len(losers) > 0 {
			loserIDs := make([]uuid.UUID, 0, len(losers))
			for i := range losers {
				loserIDs = append(loserIDs, losers[i].ID)
			}
			if err := tx.Model(&model.Bid{}).
				Where("id IN ?", loserIDs).
				Update("status", model.BidStatusRejected).Error; err != nil {
				return err
			}
		}

		tender.Status = model.TenderStatusAwarded
		if err := tx.Save(&tender).Error; err != nil {
			return err
		}

		start := input.StartDate
		if start.IsZero() {
			start = time.Now()
		}
		var sequence int64
		tx.Model(&model.Contract{}).Count(&sequence)
		contract = model.Contract{
			ContractNumber: fmt.Sprintf("CNT-%d-%04d", start.Year(), sequence+1),
			Slug:           slug.Make(fmt.Sprintf("%s-%s", vendor.CompanyName, strings.ToLower(tender.TenderNumber))),
			TenderID:       tender.ID,
			WinningBidID:   bid.ID,
			VendorID:       bid.VendorID,
			ContractValue:  bid.Amount,
			Currency:       bid.Currency,
			StartDate:      start,
			EndDate:        start.AddDate(0, 0, duration),
			DurationDays:   duration,
			Status:         model.ContractStatusDraft,
		}
		if input.TermsAndConditions != "" {
			contract.TermsAndConditions = input.TermsAndConditions
		}
		if input.PerformanceBondAmount != nil {
			contract.PerformanceBondAmount = input.PerformanceBondAmount
		}
		if input.RetentionPercentage != nil {
			contract.RetentionPercentage = *input.RetentionPercentage
		}
		if err := tx.Create(&contract).Error; err != nil {
			return conflictOr(err, "contract", "tender already has a contract")
		}

		events := make([]notify.Event, 0, len(losers)+1)
		if vendor.UserID != nil {
			events = append(events, notify.Event{
				Recipient: *vendor.UserID,
				Type:      model.NotifyContractAwarded,
				Reference: contract.ID,
				Title:     fmt.Sprintf("Tender %s awarded", tender.TenderNumber),
				Message:   fmt.Sprintf("Your bid %s won. Contract %s is ready for signature.", bid.BidNumber, contract.ContractNumber),
				Link:      "/api/contracts/" + contract.Slug,
			})
		}
		for i := range losers {
			loser := &losers[i]
			var loserVendor model.Vendor
			if err := tx.First(&loserVendor, "id = ?", loser.VendorID).Error; err != nil {
				return err
			}
			if loserVendor.UserID == nil {
				continue
			}
			events = append(events, notify.Event{
				Recipient: *loserVendor.UserID,
				Type:      model.NotifyBidStatusChange,
				Reference: statusEventRef(loser.ID, string(model.BidStatusRejected)),
				Title:     fmt.Sprintf("Bid %s was not successful", loser.BidNumber),
				Message:   fmt.Sprintf("Tender %s has been awarded to another bidder", tender.TenderNumber),
				Link:      "/api/bids/" + loser.Slug,
			})
		}
		return s.dispatcher.Dispatch(tx, events...)
	})
	if err != nil {
		return nil, nil, err
	}
	go s.RefreshGauges()
	return &bid, &contract, nil
}

// notifyBidStatus emits a status change notification to the bid's
// vendor. The reference derives from the bid and the new status so a
// replay of the same transition stays deduplicated while later
// transitions still notify.
func (s *Service) notifyBidStatus(tx *gorm.DB, bid *model.Bid) error {
	var vendor model.Vendor
	if err := tx.First(&vendor, "id = ?", bid.VendorID).Error; err != nil {
		return notFoundOr(err, "vendor")
	}
	if vendor.UserID == nil {
		return nil
	}
	return s.dispatcher.Dispatch(tx, notify.Event{
		Recipient: *vendor.UserID,
		Type:      model.NotifyBidStatusChange,
		Reference: statusEventRef(bid.ID, string(bid.Status)),
		Title:     fmt.Sprintf("Bid %s is now %s", bid.BidNumber, bid.Status),
		Message:   fmt.Sprintf("The status of your bid changed to %s", bid.Status),
		Link:      "/api/bids/" + bid.Slug,
	})
}

// refreshBidScores recomputes a bid's aggregate scores as the average
// across its evaluations.
func refreshBidScores(tx *gorm.DB, bid *model.Bid) error {
	type aggregate struct {
		Technical float64
		Financial float64
		Total     float64
	}
	var agg aggregate
	err := tx.Model(&model.BidEvaluation{}).
		Select("AVG(technical_score) as technical, AVG(financial_score) as financial, AVG(total_score) as total").
		Where("bid_id = ?", bid.ID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	now := time.Now()
	bid.TechnicalScore = &agg.Technical
	bid.FinancialScore = &agg.Financial
	bid.TotalScore = &agg.Total
	bid.ReviewedAt = &now
	return tx.Save(bid).Error
}
