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

// CreateTender validates and stores a new draft tender.
func (s *Service) CreateTender(t *model.Tender) error {
	if t.TenderNumber == "" {
		return apperr.Validation("tender_number", "is required")
	}
	if t.Title == "" {
		return apperr.Validation("title", "is required")
	}
	if t.EstimatedValue <= 0 {
		return apperr.Validation("estimated_value", "must be greater than zero")
	}
	if err := validateTenderDates(t); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var org model.Organization
		if err := tx.First(&org, "id = ?", t.OrganizationID).Error; err != nil {
			return notFoundOr(err, "organization")
		}
		if t.CategoryID != nil {
			var category model.TenderCategory
			if err := tx.First(&category, "id = ?", *t.CategoryID).Error; err != nil {
				return notFoundOr(err, "category")
			}
		}

		var count int64
		tx.Model(&model.Tender{}).Where("tender_number = ?", t.TenderNumber).Count(&count)
		if count > 0 {
			return apperr.Conflict("tender", "tender number already exists")
		}

		t.Status = model.TenderStatusDraft
		return conflictOr(tx.Create(t).Error, "tender", "tender number already exists")
	})
}

// UpdateTender applies changes to a draft tender. Published tenders
// change only through amendments.
func (s *Service) UpdateTender(id uuid.UUID, input *model.Tender) (*model.Tender, error) {
	var tender model.Tender
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tender, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusDraft {
			return apperr.StateOp("tender", string(tender.Status))
		}

		if input.TenderNumber != "" && input.TenderNumber != tender.TenderNumber {
			var count int64
			tx.Model(&model.Tender{}).
				Where("tender_number = ? AND id <> ?", input.TenderNumber, id).
				Count(&count)
			if count > 0 {
				return apperr.Conflict("tender", "tender number already exists")
			}
			tender.TenderNumber = input.TenderNumber
		}
		if input.Title != "" {
			tender.Title = input.Title
		}
		if input.CategoryID != nil {
			var category model.TenderCategory
			if err := tx.First(&category, "id = ?", *input.CategoryID).Error; err != nil {
				return notFoundOr(err, "category")
			}
			tender.CategoryID = input.CategoryID
		}
		if input.EstimatedValue > 0 {
			tender.EstimatedValue = input.EstimatedValue
		}
		if input.Currency != "" {
			tender.Currency = input.Currency
		}
		if input.SubmissionDeadline != nil {
			tender.SubmissionDeadline = input.SubmissionDeadline
		}
		if input.OpeningDate != nil {
			tender.OpeningDate = input.OpeningDate
		}
		if input.ExpectedAwardDate != nil {
			tender.ExpectedAwardDate = input.ExpectedAwardDate
		}
		if input.ContractDurationDays > 0 {
			tender.ContractDurationDays = input.ContractDurationDays
		}
		if input.Description != "" {
			tender.Description = input.Description
		}
		if input.DetailedRequirements != "" {
			tender.DetailedRequirements = input.DetailedRequirements
		}
		if input.ProcurementMethod != "" {
			tender.ProcurementMethod = input.ProcurementMethod
		}
		if input.BidSecurityAmount != nil {
			tender.BidSecurityAmount = input.BidSecurityAmount
		}
		if input.ProjectLocation != "" {
			tender.ProjectLocation = input.ProjectLocation
		}
		if input.ProjectCity != "" {
			tender.ProjectCity = input.ProjectCity
		}
		if input.ProjectCountry != "" {
			tender.ProjectCountry = input.ProjectCountry
		}
		if input.EligibleCountries != "" {
			tender.EligibleCountries = input.EligibleCountries
		}
		if input.MinimumExperienceYears > 0 {
			tender.MinimumExperienceYears = input.MinimumExperienceYears
		}
		if input.MinimumTurnover != nil {
			tender.MinimumTurnover = input.MinimumTurnover
		}
		if input.RequiresPrequalify {
			tender.RequiresPrequalify = true
		}
		if input.ContactPerson != "" {
			tender.ContactPerson = input.ContactPerson
		}
		if input.ContactEmail != "" {
			tender.ContactEmail = input.ContactEmail
		}
		if input.ContactPhone != "" {
			tender.ContactPhone = input.ContactPhone
		}

		if err := validateTenderDates(&tender); err != nil {
			return err
		}
		return tx.Save(&tender).Error
	})
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

// DeleteTender removes a draft tender and its owned records.
func (s *Service) DeleteTender(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var tender model.Tender
		if err := tx.First(&tender, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusDraft {
			return apperr.StateOp("tender", string(tender.Status))
		}
		if err := tx.Where("tender_id = ?", id).Delete(&model.TenderDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tender_id = ?", id).Delete(&model.TenderAmendment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tender_id = ?", id).Delete(&model.Clarification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tender).Error
	})
}

// PublishTender moves a draft tender to published and notifies the
// vendors registered in its category.
func (s *Service) PublishTender(id uuid.UUID) (*model.Tender, error) {
	var tender model.Tender
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tender, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if !tender.Status.CanTransition(model.TenderStatusPublished) {
			return apperr.State("tender", string(tender.Status), string(model.TenderStatusPublished))
		}

		var org model.Organization
		if err := tx.First(&org, "id = ?", tender.OrganizationID).Error; err != nil {
			return notFoundOr(err, "organization")
		}
		if !org.IsVerified {
			return apperr.Validation("organization", "must be verified to publish tenders")
		}
		if tender.CategoryID == nil {
			return apperr.Validation("category_id", "at least one category must be assigned")
		}
		if tender.SubmissionDeadline == nil || tender.OpeningDate == nil {
			return apperr.Validation("submission_deadline", "submission deadline and opening date must be set")
		}
		if !tender.SubmissionDeadline.Before(*tender.OpeningDate) {
			return apperr.Validation("submission_deadline", "must be before the opening date")
		}

		now := time.Now()
		tender.Status = model.TenderStatusPublished
		tender.PublicationDate = &now
		if err := tx.Save(&tender).Error; err != nil {
			return err
		}

		recipients, err := categoryVendorUsers(tx, *tender.CategoryID)
		if err != nil {
			return err
		}
		events := make([]notify.Event, 0, len(recipients))
		for _, userID := range recipients {
			events = append(events, notify.Event{
				Recipient: userID,
				Type:      model.NotifyTenderPublished,
				Reference: tender.ID,
				Title:     "New tender published",
				Message:   fmt.Sprintf("%s: %s is open for bids", tender.TenderNumber, tender.Title),
				Link:      "/api/tenders/" + tender.Slug,
			})
		}
		return s.dispatcher.Dispatch(tx, events...)
	})
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

// AmendTender appends a versioned amendment to a published tender and
// applies any deadline or value change it carries.
func (s *Service) AmendTender(tenderID uuid.UUID, amendment *model.TenderAmendment) (*model.TenderAmendment, error) {
	if amendment.Title == "" {
		return nil, apperr.Validation("title", "is required")
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tender model.Tender
		if err := tx.First(&tender, "id = ?", tenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusPublished {
			return apperr.StateOp("tender", string(tender.Status))
		}

		if amendment.AffectsDeadline {
			if amendment.NewDeadline == nil {
				return apperr.Validation("new_submission_deadline", "is required when the amendment moves the deadline")
			}
			if !amendment.NewDeadline.After(time.Now()) {
				return apperr.Validation("new_submission_deadline", "must be in the future")
			}
			if tender.OpeningDate != nil && !amendment.NewDeadline.Before(*tender.OpeningDate) {
				return apperr.Validation("new_submission_deadline", "must be before the opening date")
			}
		}
		if amendment.AffectsValue {
			if amendment.NewValue == nil || *amendment.NewValue <= 0 {
				return apperr.Validation("new_estimated_value", "must be greater than zero")
			}
		}

		var maxVersion int
		row := tx.Model(&model.TenderAmendment{}).
			Where("tender_id = ?", tenderID).
			Select("COALESCE(MAX(amendment_number), 0)").
			Row()
		if err := row.Scan(&maxVersion); err != nil {
			return err
		}
		amendment.TenderID = tenderID
		amendment.AmendmentNumber = maxVersion + 1

		if err := tx.Create(amendment).Error; err != nil {
			return conflictOr(err, "amendment", "amendment number already used on this tender")
		}

		if amendment.AffectsDeadline {
			tender.SubmissionDeadline = amendment.NewDeadline
		}
		if amendment.AffectsValue {
			tender.EstimatedValue = *amendment.NewValue
		}
		if err := tx.Save(&tender).Error; err != nil {
			return err
		}

		recipients, err := bidderUsers(tx, tenderID)
		if err != nil {
			return err
		}
		events := make([]notify.Event, 0, len(recipients))
		for _, userID := range recipients {
			events = append(events, notify.Event{
				Recipient: userID,
				Type:      model.NotifyAmendmentPublished,
				Reference: amendment.ID,
				Title:     fmt.Sprintf("Amendment %d to %s", amendment.AmendmentNumber, tender.TenderNumber),
				Message:   amendment.Title,
				Link:      "/api/tenders/" + tender.Slug + "/amendments",
			})
		}
		return s.dispatcher.Dispatch(tx, events...)
	})
	if err != nil {
		return nil, err
	}
	return amendment, nil
}

// CloseTender moves a published tender to closed.
func (s *Service) CloseTender(id uuid.UUID) (*model.Tender, error) {
	var tender model.Tender
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tender, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if !tender.Status.CanTransition(model.TenderStatusClosed) {
			return apperr.State("tender", string(tender.Status), string(model.TenderStatusClosed))
		}
		tender.Status = model.TenderStatusClosed
		return tx.Save(&tender).Error
	})
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

// CancelTender moves a closed tender to cancelled and notifies every
// vendor holding a non-withdrawn bid.
func (s *Service) CancelTender(id uuid.UUID, reason string) (*model.Tender, error) {
	if reason == "" {
		return nil, apperr.Validation("reason", "is required to cancel a tender")
	}
	var tender model.Tender
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tender, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if !tender.Status.CanTransition(model.TenderStatusCancelled) {
			return apperr.State("tender", string(tender.Status), string(model.TenderStatusCancelled))
		}
		tender.Status = model.TenderStatusCancelled
		tender.CancelledReason = reason
		if err := tx.Save(&tender).Error; err != nil {
			return err
		}

		recipients, err := bidderUsers(tx, id)
		if err != nil {
			return err
		}
		ref := statusEventRef(tender.ID, string(model.TenderStatusCancelled))
		events := make([]notify.Event, 0, len(recipients))
		for _, userID := range recipients {
			events = append(events, notify.Event{
				Recipient: userID,
				Type:      model.NotifyBidStatusChange,
				Reference: ref,
				Title:     fmt.Sprintf("Tender %s cancelled", tender.TenderNumber),
				Message:   reason,
				Link:      "/api/tenders/" + tender.Slug,
			})
		}
		return s.dispatcher.Dispatch(tx, events...)
	})
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

// SweepResult summarises one deadline sweep.
type SweepResult struct {
	Closed        int64 `json:"closed"`
	ClosingSoon   int   `json:"closing_soon_notified"`
	MilestonesDue int   `json:"milestones_due_notified"`
}

// SweepDeadlines closes every published tender whose submission
// deadline has passed and emits the time-based notifications: tenders
// closing within the configured window and milestones falling due.
// The operation is idempotent and safe to invoke repeatedly.
func (s *Service) SweepDeadlines(now time.Time) (SweepResult, error) {
	var result SweepResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		closed := tx.Model(&model.Tender{}).
			Where("status = ? AND submission_deadline <= ?", model.TenderStatusPublished, now).
			Update("status", model.TenderStatusClosed)
		if closed.Error != nil {
			return closed.Error
		}
		result.Closed = closed.RowsAffected

		window := now.Add(s.cfg.Notify.ClosingSoonWindow)

		var closing []model.Tender
		if err := tx.Where("status = ? AND submission_deadline > ? AND submission_deadline <= ?",
			model.TenderStatusPublished, now, window).
			Find(&closing).Error; err != nil {
			return err
		}
		for i := range closing {
			tender := &closing[i]
			recipients, err := bidderUsers(tx, tender.ID)
			if err != nil {
				return err
			}
			events := make([]notify.Event, 0, len(recipients))
			for _, userID := range recipients {
				events = append(events, notify.Event{
					Recipient: userID,
					Type:      model.NotifyTenderClosing,
					Reference: tender.ID,
					Title:     fmt.Sprintf("Tender %s closing soon", tender.TenderNumber),
					Message:   fmt.Sprintf("Submissions close at %s", tender.SubmissionDeadline.Format(time.RFC3339)),
					Link:      "/api/tenders/" + tender.Slug,
				})
			}
			if err := s.dispatcher.Dispatch(tx, events...); err != nil {
				return err
			}
			result.ClosingSoon += len(events)
		}

		due, err := s.sweepMilestones(tx, now, window)
		if err != nil {
			return err
		}
		result.MilestonesDue = due
		return nil
	})
	if err != nil {
		return result, err
	}
	go s.RefreshGauges()
	return result, nil
}

// sweepMilestones notifies vendors of unpaid milestones due within the
// window.
func (s *Service) sweepMilestones(tx *gorm.DB, now, window time.Time) (int, error) {
	type dueRow struct {
		MilestoneID    uuid.UUID
		Title          string
		DueDate        time.Time
		ContractNumber string
		UserID         uuid.UUID
	}
	var rows []dueRow
	err := tx.Model(&model.Milestone{}).
		Select("milestones.id as milestone_id, milestones.title, milestones.due_date, contracts.contract_number, vendors.user_id").
		Joins("JOIN contracts ON contracts.id = milestones.contract_id").
		Joins("JOIN vendors ON vendors.id = contracts.vendor_id").
		Where("milestones.status IN ?", []model.MilestoneStatus{
			model.MilestoneStatusPending,
			model.MilestoneStatusInProgress,
			model.MilestoneStatusDelayed,
		}).
		Where("milestones.due_date <= ? AND vendors.user_id IS NOT NULL", window).
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}

	events := make([]notify.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, notify.Event{
			Recipient: row.UserID,
			Type:      model.NotifyMilestoneDue,
			Reference: row.MilestoneID,
			Title:     fmt.Sprintf("Milestone due on contract %s", row.ContractNumber),
			Message:   fmt.Sprintf("%s is due on %s", row.Title, row.DueDate.Format("2006-01-02")),
		})
	}
	if err := s.dispatcher.Dispatch(tx, events...); err != nil {
		return 0, err
	}
	return len(events), nil
}

// RecordTenderView bumps the tender view counter.
func (s *Service) RecordTenderView(id uuid.UUID) {
	s.db.Model(&model.Tender{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
}

// validateTenderDates checks the deadline ordering invariant when both
// dates are present.
func validateTenderDates(t *model.Tender) error {
	if t.SubmissionDeadline != nil && t.OpeningDate != nil {
		if !t.SubmissionDeadline.Before(*t.OpeningDate) {
			return apperr.Validation("submission_deadline", "must be before the opening date")
		}
	}
	return nil
}

// categoryVendorUsers returns the user IDs of vendors registered in
// the given category.
func categoryVendorUsers(tx *gorm.DB, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&model.Vendor{}).
		Joins("JOIN vendor_categories vc ON vc.vendor_id = vendors.id").
		Where("vc.tender_category_id = ? AND vendors.user_id IS NOT NULL", categoryID).
		Distinct().
		Pluck("vendors.user_id", &ids).Error
	return ids, err
}

// bidderUsers returns the user IDs of vendors holding a non-withdrawn
// bid on the tender.
func bidderUsers(tx *gorm.DB, tenderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&model.Bid{}).
		Joins("JOIN vendors ON vendors.id = bids.vendor_id").
		Where("bids.tender_id = ? AND bids.status <> ? AND vendors.user_id IS NOT NULL",
			tenderID, model.BidStatusWithdrawn).
		Distinct().
		Pluck("vendors.user_id", &ids).Error
	return ids, err
}
