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

// AskClarification records a vendor's question on a published tender.
func (s *Service) AskClarification(c *model.Clarification) error {
	if c.Question == "" {
		return apperr.Validation("question", "is required")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var tender model.Tender
		if err := tx.First(&tender, "id = ?", c.TenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		if tender.Status != model.TenderStatusPublished {
			return apperr.StateOp("tender", string(tender.Status))
		}
		var vendor model.Vendor
		if err := tx.First(&vendor, "id = ?", c.VendorID).Error; err != nil {
			return notFoundOr(err, "vendor")
		}
		c.IsAnswered = false
		c.AnsweredAt = nil
		return tx.Create(c).Error
	})
}

// AnswerClarification publishes the organization's answer and notifies
// the vendor who asked.
func (s *Service) AnswerClarification(id uuid.UUID, answer string) (*model.Clarification, error) {
	if answer == "" {
		return nil, apperr.Validation("answer", "is required")
	}
	var clarification model.Clarification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&clarification, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "clarification")
		}
		if clarification.IsAnswered {
			return apperr.StateOp("clarification", "answered")
		}

		now := time.Now()
		clarification.Answer = answer
		clarification.IsAnswered = true
		clarification.AnsweredAt = &now
		if err := tx.Save(&clarification).Error; err != nil {
			return err
		}

		var tender model.Tender
		if err := tx.First(&tender, "id = ?", clarification.TenderID).Error; err != nil {
			return notFoundOr(err, "tender")
		}
		var vendor model.Vendor
		if err := tx.First(&vendor, "id = ?", clarification.VendorID).Error; err != nil {
			return notFoundOr(err, "vendor")
		}
		if vendor.UserID == nil {
			return nil
		}
		return s.dispatcher.Dispatch(tx, notify.Event{
			Recipient: *vendor.UserID,
			Type:      model.NotifyClarificationAnswered,
			Reference: clarification.ID,
			Title:     fmt.Sprintf("Clarification answered on %s", tender.TenderNumber),
			Message:   answer,
			Link:      "/api/tenders/" + tender.Slug + "/clarifications",
		})
	})
	if err != nil {
		return nil, err
	}
	return &clarification, nil
}
