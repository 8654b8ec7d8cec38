package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType classifies dispatched notifications.
type NotificationType string

const (
	NotifyTenderPublished       NotificationType = "tender_published"
	NotifyTenderClosing         NotificationType = "tender_closing"
	NotifyBidSubmitted          NotificationType = "bid_submitted"
	NotifyBidStatusChange       NotificationType = "bid_status_change"
	NotifyClarificationAnswered NotificationType = "clarification_answered"
	NotifyAmendmentPublished    NotificationType = "amendment_published"
	NotifyContractAwarded       NotificationType = "contract_awarded"
	NotifyMilestoneDue          NotificationType = "milestone_due"
	NotifyPaymentReleased       NotificationType = "payment_released"
)

// Notification represents an in-app notification for a user. At most
// one notification exists per (recipient, type, reference) so repeated
// dispatch of the same event is a no-op.
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID        `json:"recipient_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_notification_dedup,priority:1"`
	Type        NotificationType `json:"notification_type" gorm:"column:notification_type;type:varchar(50);uniqueIndex:idx_notification_dedup,priority:2"`
	ReferenceID uuid.UUID        `json:"reference_id" gorm:"type:uuid;uniqueIndex:idx_notification_dedup,priority:3"`

	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Message string `json:"message" gorm:"type:text"`
	Link    string `json:"link" gorm:"type:varchar(500)"`

	IsRead    bool       `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// BeforeCreate hook assigns the record identifier
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
