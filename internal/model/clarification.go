package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clarification represents a vendor question about a tender and the
// organization's answer. Public clarifications are visible to all
// vendors once answered.
type Clarification struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenderID uuid.UUID `json:"tender_id" gorm:"type:uuid;not null;index"`
	VendorID uuid.UUID `json:"vendor_id" gorm:"type:uuid;not null;index"`

	Question string `json:"question" gorm:"type:text;not null"`
	Answer   string `json:"answer" gorm:"type:text"`

	IsPublic   bool `json:"is_public" gorm:"default:true"`
	IsAnswered bool `json:"is_answered" gorm:"default:false"`

	AskedAt    time.Time  `json:"asked_at" gorm:"autoCreateTime"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

// BeforeCreate hook assigns the record identifier
func (c *Clarification) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
