package lifecycle

import (
	"fmt"
	"time"

	"tender-service/internal/apperr"
	"tender-service/internal/model"
	"tender-service/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Signing parties for SignContract.
const (
	PartyOrganization = "organization"
	PartyVendor       = "vendor"
)

// SignContract records one party's signature on a draft contract.
func (s *Service) SignContract(id uuid.UUID, party string) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&contract, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "contract")
		}
		if contract.Status != model.ContractStatusDraft {
			return apperr.StateOp("contract", string(contract.Status))
		}
		switch party {
		case PartyOrganization:
			contract.SignedByOrganization = true
		case PartyVendor:
			contract.SignedByVendor = true
		default:
			return apperr.Validation("party", "must be organization or vendor")
		}
		return tx.Save(&contract).Error
	})
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// ActivateContract moves a fully signed draft contract to active.
func (s *Service) ActivateContract(id uuid.UUID) (*model.Contract, error) {
	contract, err := s.transitionContract(id, model.ContractStatusActive, func(c *model.Contract) error {
		if !c.SignedByOrganization || !c.SignedByVendor {
			return apperr.Validation("signatures", "both parties must sign before activation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	go s.RefreshGauges()
	return contract, nil
}

// SuspendContract pauses an active contract.
func (s *Service) SuspendContract(id uuid.UUID) (*model.Contract, error) {
	contract, err := s.transitionContract(id, model.ContractStatusSuspended, nil)
	if err != nil {
		return nil, err
	}
	go s.RefreshGauges()
	return contract, nil
}

// ResumeContract returns a suspended contract to active.
func (s *Service) ResumeContract(id uuid.UUID) (*model.Contract, error) {
	contract, err := s.transitionContract(id, model.ContractStatusActive, nil)
	if err != nil {
		return nil, err
	}
	go s.RefreshGauges()
	return contract, nil
}

// TerminateContract ends a contract before completion.
func (s *Service) TerminateContract(id uuid.UUID) (*model.Contract, error) {
	contract, err := s.transitionContract(id, model.ContractStatusTerminated, nil)
	if err != nil {
		return nil, err
	}
	go s.RefreshGauges()
	return contract, nil
}

// CompleteContract closes out an active contract. Unpaid milestones do
// not block completion, they simply stay in their last state.
func (s *Service) CompleteContract(id uuid.UUID) (*model.Contract, error) {
	contract, err := s.transitionContract(id, model.ContractStatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	go s.RefreshGauges()
	return contract, nil
}

// transitionContract applies one guarded status transition.
func (s *Service) transitionContract(id uuid.UUID, next model.ContractStatus, guard func(*model.Contract) error) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&contract, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "contract")
		}
		if !contract.Status.CanTransition(next) {
			return apperr.State("contract", string(contract.Status), string(next))
		}
		if guard != nil {
			if err := guard(&contract); err != nil {
				return err
			}
		}
		contract.Status = next
		return tx.Save(&contract).Error
	})
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// CreateMilestone adds a payment milestone to a contract that is still
// running. The milestone total is checked against the contract value
// at creation time.
func (s *Service) CreateMilestone(m *model.Milestone) error {
	if m.Title == "" {
		return apperr.Validation("title", "is required")
	}
	if m.Amount <= 0 {
		return apperr.Validation("amount", "must be greater than zero")
	}
	if m.DueDate.IsZero() {
		return apperr.Validation("due_date", "is required")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var contract model.Contract
		if err := tx.First(&contract, "id = ?", m.ContractID).Error; err != nil {
			return notFoundOr(err, "contract")
		}
		if contract.Status.IsTerminal() {
			return apperr.StateOp("contract", string(contract.Status))
		}

		if m.SequenceNumber == 0 {
			var maxSequence int
			row := tx.Model(&model.Milestone{}).
				Where("contract_id = ?", m.ContractID).
				Select("COALESCE(MAX(sequence_number), 0)").
				Row()
			if err := row.Scan(&maxSequence); err != nil {
				return err
			}
			m.SequenceNumber = maxSequence + 1
		} else {
			var count int64
			tx.Model(&model.Milestone{}).
				Where("contract_id = ? AND sequence_number = ?", m.ContractID, m.SequenceNumber).
				Count(&count)
			if count > 0 {
				return apperr.Conflict("milestone", "sequence number already used on this contract")
			}
		}

		var allocated float64
		row := tx.Model(&model.Milestone{}).
			Where("contract_id = ?", m.ContractID).
			Select("COALESCE(SUM(amount), 0)").
			Row()
		if err := row.Scan(&allocated); err != nil {
			return err
		}
		if allocated+m.Amount > contract.ContractValue {
			return apperr.Validation("amount", "milestone amounts would exceed the contract value")
		}

		if m.PercentageOfTotal == 0 && contract.ContractValue > 0 {
			m.PercentageOfTotal = m.Amount / contract.ContractValue * 100
		}
		m.Status = model.MilestoneStatusPending
		return conflictOr(tx.Create(m).Error, "milestone", "sequence number already used on this contract")
	})
}

// StartMilestone moves a pending or delayed milestone into progress.
func (s *Service) StartMilestone(id uuid.UUID) (*model.Milestone, error) {
	return s.transitionMilestone(id, model.MilestoneStatusInProgress, nil)
}

// CompleteMilestone marks the deliverable finished and stamps the
// completion date.
func (s *Service) CompleteMilestone(id uuid.UUID) (*model.Milestone, error) {
	return s.transitionMilestone(id, model.MilestoneStatusCompleted, func(m *model.Milestone) error {
		now := time.Now()
		m.CompletionDate = &now
		return nil
	})
}

// DelayMilestone flags a milestone as running late.
func (s *Service) DelayMilestone(id uuid.UUID) (*model.Milestone, error) {
	return s.transitionMilestone(id, model.MilestoneStatusDelayed, nil)
}

// VerifyMilestone accepts the deliverable. Verification requires a
// supporting document, either passed here or already on file.
func (s *Service) VerifyMilestone(id uuid.UUID, document string) (*model.Milestone, error) {
	return s.transitionMilestone(id, model.MilestoneStatusVerified, func(m *model.Milestone) error {
		if document != "" {
			m.VerificationDocument = document
		}
		if m.VerificationDocument == "" {
			return apperr.Validation("verification_document", "is required to verify a milestone")
		}
		if m.CompletionDate == nil {
			now := time.Now()
			m.CompletionDate = &now
		}
		return nil
	})
}

// PayMilestone releases payment for a verified milestone and notifies
// the vendor. The receipt reference is mandatory.
func (s *Service) PayMilestone(id uuid.UUID, receipt string) (*model.Milestone, error) {
	var milestone model.Milestone
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&milestone, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "milestone")
		}
		if !milestone.Status.CanTransition(model.MilestoneStatusPaid) {
			return apperr.State("milestone", string(milestone.Status), string(model.MilestoneStatusPaid))
		}
		if receipt == "" {
			return apperr.Validation("payment_receipt", "is required to release payment")
		}

		now := time.Now()
		milestone.Status = model.MilestoneStatusPaid
		milestone.PaymentReceipt = receipt
		milestone.PaymentDate = &now
		if err := tx.Save(&milestone).Error; err != nil {
			return err
		}

		var contract model.Contract
		if err := tx.First(&contract, "id = ?", milestone.ContractID).Error; err != nil {
			return notFoundOr(err, "contract")
		}
		var vendor model.Vendor
		if err := tx.First(&vendor, "id = ?", contract.VendorID).Error; err != nil {
			return notFoundOr(err, "vendor")
		}
		if vendor.UserID == nil {
			return nil
		}
		return s.dispatcher.Dispatch(tx, notify.Event{
			Recipient: *vendor.UserID,
			Type:      model.NotifyPaymentReleased,
			Reference: milestone.ID,
			Title:     fmt.Sprintf("Payment released on %s", contract.ContractNumber),
			Message:   fmt.Sprintf("%s %.2f paid for milestone %s", contract.Currency, milestone.Amount, milestone.Title),
			Link:      "/api/contracts/" + contract.Slug + "/milestones",
		})
	})
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

// transitionMilestone applies one guarded milestone transition.
func (s *Service) transitionMilestone(id uuid.UUID, next model.MilestoneStatus, mutate func(*model.Milestone) error) (*model.Milestone, error) {
	var milestone model.Milestone
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&milestone, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "milestone")
		}
		if !milestone.Status.CanTransition(next) {
			return apperr.State("milestone", string(milestone.Status), string(next))
		}
		if mutate != nil {
			if err := mutate(&milestone); err != nil {
				return err
			}
		}
		milestone.Status = next
		return tx.Save(&milestone).Error
	})
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

// ReviewContract records the organization's review of a completed
// contract and refreshes the vendor's aggregate rating.
func (s *Service) ReviewContract(r *model.Review) error {
	for field, rating := range map[string]int{
		"quality_rating":         r.QualityRating,
		"timeliness_rating":      r.TimelinessRating,
		"professionalism_rating": r.ProfessionalismRating,
	} {
		if rating < 1 || rating > 5 {
			return apperr.Validation(field, "must be between 1 and 5")
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var contract model.Contract
		if err := tx.First(&contract, "id = ?", r.ContractID).Error; err != nil {
			return notFoundOr(err, "contract")
		}
		if contract.Status != model.ContractStatusCompleted {
			return apperr.StateOp("contract", string(contract.Status))
		}

		var count int64
		tx.Model(&model.Review{}).Where("contract_id = ?", r.ContractID).Count(&count)
		if count > 0 {
			return apperr.Conflict("review", "contract already reviewed")
		}

		if r.OverallRating == 0 {
			r.OverallRating = float64(r.QualityRating+r.TimelinessRating+r.ProfessionalismRating) / 3
		}
		if err := tx.Create(r).Error; err != nil {
			return conflictOr(err, "review", "contract already reviewed")
		}
		return refreshVendorRating(tx, contract.VendorID)
	})
}

// refreshVendorRating recomputes a vendor's rating from all reviews of
// its contracts.
func refreshVendorRating(tx *gorm.DB, vendorID uuid.UUID) error {
	type aggregate struct {
		Rating float64
		Total  int64
	}
	var agg aggregate
	err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(reviews.overall_rating), 0) as rating, COUNT(reviews.id) as total").
		Joins("JOIN contracts ON contracts.id = reviews.contract_id").
		Where("contracts.vendor_id = ?", vendorID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]interface{}{
			"rating":        agg.Rating,
			"total_reviews": agg.Total,
		}).Error
}
