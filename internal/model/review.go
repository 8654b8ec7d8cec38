package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review represents the organization's rating of a vendor after a
// contract completes. One review per contract.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReviewerID uuid.UUID `json:"reviewer_id" gorm:"type:uuid;not null"`

	QualityRating         int     `json:"quality_rating" gorm:"not null"`
	TimelinessRating      int     `json:"timeliness_rating" gorm:"not null"`
	ProfessionalismRating int     `json:"professionalism_rating" gorm:"not null"`
	OverallRating         float64 `json:"overall_rating"`

	Comment        string `json:"comment" gorm:"type:text"`
	WouldWorkAgain bool   `json:"would_work_again"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook assigns the record identifier
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
