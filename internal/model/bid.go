package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// BidDocumentType classifies documents submitted with a bid.
type BidDocumentType string

const (
	BidDocTechnicalProposal   BidDocumentType = "technical_proposal"
	BidDocFinancialProposal   BidDocumentType = "financial_proposal"
	BidDocCompanyProfile      BidDocumentType = "company_profile"
	BidDocRegistrationCert    BidDocumentType = "registration_cert"
	BidDocTaxClearance        BidDocumentType = "tax_clearance"
	BidDocFinancialStatements BidDocumentType = "financial_statements"
	BidDocExperienceCert      BidDocumentType = "experience_cert"
	BidDocBidSecurity         BidDocumentType = "bid_security"
	BidDocPowerAttorney       BidDocumentType = "power_attorney"
	BidDocOther               BidDocumentType = "other"
)

// Bid represents a vendor's offer on a tender. A vendor may hold at
// most one non-withdrawn bid per tender and a tender may hold at most
// one awarded bid, both enforced by partial unique indexes.
type Bid struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BidNumber string    `json:"bid_number" gorm:"type:varchar(100);uniqueIndex"`
	Slug      string    `json:"slug" gorm:"type:varchar(300);uniqueIndex"`

	TenderID uuid.UUID `json:"tender_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_bid_live,priority:1,where:status <> 'withdrawn';uniqueIndex:idx_bid_awarded,where:status = 'awarded'"`
	VendorID uuid.UUID `json:"vendor_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_bid_live,priority:2"`

	// Offer
	Amount   float64 `json:"bid_amount" gorm:"not null"`
	Currency string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`

	TechnicalProposal    string `json:"technical_proposal" gorm:"type:text"`
	FinancialProposal    string `json:"financial_proposal" gorm:"type:text"`
	DeliveryTimelineDays int    `json:"delivery_timeline_days"`

	// Security
	BidSecurityReference string   `json:"bid_security_reference" gorm:"type:varchar(100)"`
	BidSecurityAmount    *float64 `json:"bid_security_amount,omitempty"`

	Status BidStatus `json:"status" gorm:"type:varchar(20);default:'submitted';index"`

	// Evaluation
	TechnicalScore    *float64 `json:"technical_score,omitempty"`
	FinancialScore    *float64 `json:"financial_score,omitempty"`
	TotalScore        *float64 `json:"total_score,omitempty"`
	EvaluatorComments string   `json:"evaluator_comments" gorm:"type:text"`

	// Timestamps
	SubmittedAt time.Time  `json:"submitted_at" gorm:"index"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tender    *Tender       `json:"tender,omitempty" gorm:"foreignKey:TenderID"`
	Vendor    *Vendor       `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Documents []BidDocument `json:"documents,omitempty" gorm:"foreignKey:BidID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook assigns the record identifier and a fallback slug.
// The lifecycle layer sets the descriptive slug from the vendor and
// tender it already holds.
func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Slug == "" {
		b.Slug = slug.Make(b.BidNumber)
	}
	return nil
}

// BidDocument represents a document reference submitted with a bid
type BidDocument struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	BidID        uuid.UUID       `json:"bid_id" gorm:"type:uuid;not null;index"`
	DocumentType BidDocumentType `json:"document_type" gorm:"type:varchar(50)"`
	Title        string          `json:"title" gorm:"type:varchar(255);not null"`
	Slug         string          `json:"slug" gorm:"type:varchar(300)"`
	File         string          `json:"file" gorm:"type:varchar(500);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	UploadedAt   time.Time       `json:"uploaded_at" gorm:"autoCreateTime"`
}

// BeforeCreate hook assigns the record identifier and slug
func (d *BidDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Slug == "" {
		d.Slug = slug.Make(fmt.Sprintf("%s-%s", d.Title, d.ID))
	}
	return nil
}
