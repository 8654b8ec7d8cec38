package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Contract represents the agreement created when a tender is awarded.
// Each tender yields at most one contract and each contract traces to
// exactly one winning bid.
type Contract struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractNumber string    `json:"contract_number" gorm:"type:varchar(100);uniqueIndex"`
	Slug           string    `json:"slug" gorm:"type:varchar(300);uniqueIndex"`

	TenderID     uuid.UUID `json:"tender_id" gorm:"type:uuid;not null;uniqueIndex"`
	WinningBidID uuid.UUID `json:"winning_bid_id" gorm:"type:uuid;not null;uniqueIndex"`
	VendorID     uuid.UUID `json:"vendor_id" gorm:"type:uuid;not null;index"`

	ContractValue float64 `json:"contract_value" gorm:"not null"`
	Currency      string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`

	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`

	Status ContractStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	TermsAndConditions    string   `json:"terms_and_conditions" gorm:"type:text"`
	PerformanceBondAmount *float64 `json:"performance_bond_amount,omitempty"`
	RetentionPercentage   float64  `json:"retention_percentage" gorm:"default:10"`

	SignedContract       string `json:"signed_contract" gorm:"type:varchar(500)"`
	SignedByOrganization bool   `json:"signed_by_organization" gorm:"default:false"`
	SignedByVendor       bool   `json:"signed_by_vendor" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tender     *Tender     `json:"tender,omitempty" gorm:"foreignKey:TenderID"`
	WinningBid *Bid        `json:"winning_bid,omitempty" gorm:"foreignKey:WinningBidID"`
	Vendor     *Vendor     `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Milestones []Milestone `json:"milestones,omitempty" gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook assigns the record identifier and a fallback slug.
// The lifecycle layer sets the descriptive slug from the vendor it
// already holds.
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.ContractNumber)
	}
	return nil
}

// Milestone represents a deliverable and payment stage of a contract.
// Sequence numbers are unique within a contract.
type Milestone struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID uuid.UUID `json:"contract_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_contract_sequence,priority:1"`

	Title       string `json:"title" gorm:"type:varchar(255);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(300)"`
	Description string `json:"description" gorm:"type:text"`

	SequenceNumber int    `json:"sequence_number" gorm:"not null;uniqueIndex:idx_contract_sequence,priority:2"`
	Deliverables   string `json:"deliverables" gorm:"type:text"`

	Amount            float64 `json:"amount" gorm:"not null"`
	PercentageOfTotal float64 `json:"percentage_of_total"`

	DueDate        time.Time  `json:"due_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`

	Status MilestoneStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	VerificationDocument string `json:"verification_document" gorm:"type:varchar(500)"`
	PaymentReceipt       string `json:"payment_receipt" gorm:"type:varchar(500)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook assigns the record identifier and a fallback slug
func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Slug == "" {
		m.Slug = slug.Make(fmt.Sprintf("%s-milestone-%d", m.Title, m.SequenceNumber))
	}
	return nil
}
