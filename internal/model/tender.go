package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ProcurementMethod classifies how a tender is procured.
type ProcurementMethod string

const (
	MethodOpen                ProcurementMethod = "open"
	MethodRestricted          ProcurementMethod = "restricted"
	MethodNegotiated          ProcurementMethod = "negotiated"
	MethodFramework           ProcurementMethod = "framework"
	MethodCompetitiveDialogue ProcurementMethod = "competitive_dialogue"
	MethodRequestQuotation    ProcurementMethod = "request_quotation"
)

// TenderDocumentType classifies documents attached to a tender.
type TenderDocumentType string

const (
	TenderDocNotice           TenderDocumentType = "tender_notice"
	TenderDocTechnicalSpecs   TenderDocumentType = "technical_specs"
	TenderDocBillQuantities   TenderDocumentType = "bill_quantities"
	TenderDocDrawings         TenderDocumentType = "drawings"
	TenderDocTermsConditions  TenderDocumentType = "terms_conditions"
	TenderDocContractTemplate TenderDocumentType = "contract_template"
	TenderDocPrequalification TenderDocumentType = "prequalification"
	TenderDocAddendum         TenderDocumentType = "addendum"
	TenderDocOther            TenderDocumentType = "other"
)

// Tender represents a published procurement opportunity
type Tender struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenderNumber string    `json:"tender_number" gorm:"type:varchar(100);uniqueIndex"`
	Slug         string    `json:"slug" gorm:"type:varchar(300);uniqueIndex"`
	Title        string    `json:"title" gorm:"type:varchar(500);not null"`

	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty" gorm:"type:uuid;index:idx_tender_category_status,priority:1"`

	Description          string `json:"description" gorm:"type:text"`
	DetailedRequirements string `json:"detailed_requirements" gorm:"type:text"`

	Status            TenderStatus      `json:"status" gorm:"type:varchar(20);default:'draft';index:idx_tender_status_deadline,priority:1;index:idx_tender_category_status,priority:2"`
	ProcurementMethod ProcurementMethod `json:"procurement_method" gorm:"type:varchar(50)"`

	// Financial
	EstimatedValue    float64  `json:"estimated_value" gorm:"not null"`
	Currency          string   `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	BidSecurityAmount *float64 `json:"bid_security_amount,omitempty"`

	// Dates
	PublicationDate    *time.Time `json:"publication_date,omitempty"`
	SubmissionDeadline *time.Time `json:"submission_deadline,omitempty" gorm:"index:idx_tender_status_deadline,priority:2"`
	OpeningDate        *time.Time `json:"opening_date,omitempty"`
	ExpectedAwardDate  *time.Time `json:"expected_award_date,omitempty"`

	ContractDurationDays int `json:"contract_duration_days"`

	// Location
	ProjectLocation string `json:"project_location" gorm:"type:varchar(255)"`
	ProjectCity     string `json:"project_city" gorm:"type:varchar(100)"`
	ProjectCountry  string `json:"project_country" gorm:"type:varchar(100)"`

	// Eligibility
	EligibleCountries      string   `json:"eligible_countries" gorm:"type:text"`
	MinimumExperienceYears int      `json:"minimum_experience_years" gorm:"default:0"`
	MinimumTurnover        *float64 `json:"minimum_turnover,omitempty"`
	RequiresPrequalify     bool     `json:"requires_prequalification" gorm:"default:false"`

	// Contact
	ContactPerson string `json:"contact_person" gorm:"type:varchar(255)"`
	ContactEmail  string `json:"contact_email" gorm:"type:varchar(100)"`
	ContactPhone  string `json:"contact_phone" gorm:"type:varchar(20)"`

	// Metadata
	ViewsCount      int        `json:"views_count" gorm:"default:0"`
	IsFeatured      bool       `json:"is_featured" gorm:"default:false"`
	CancelledReason string     `json:"cancelled_reason,omitempty" gorm:"type:text"`
	CreatedByID     *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Organization *Organization     `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Category     *TenderCategory   `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Documents    []TenderDocument  `json:"documents,omitempty" gorm:"foreignKey:TenderID;constraint:OnDelete:CASCADE"`
	Amendments   []TenderAmendment `json:"amendments,omitempty" gorm:"foreignKey:TenderID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook assigns the record identifier and slug
func (t *Tender) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Slug == "" {
		t.Slug = fmt.Sprintf("%s-%s", slug.Make(t.Title), strings.ToLower(slug.Make(t.TenderNumber)))
	}
	return nil
}

// AcceptingBids reports whether the tender can receive bids at the
// given instant.
func (t *Tender) AcceptingBids(now time.Time) bool {
	return t.Status == TenderStatusPublished &&
		t.SubmissionDeadline != nil &&
		now.Before(*t.SubmissionDeadline)
}

// TenderDocument represents a document reference attached to a tender.
// Files live in external storage and are tracked by reference only.
type TenderDocument struct {
	ID           uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	TenderID     uuid.UUID          `json:"tender_id" gorm:"type:uuid;not null;index"`
	DocumentType TenderDocumentType `json:"document_type" gorm:"type:varchar(50)"`
	Title        string             `json:"title" gorm:"type:varchar(255);not null"`
	Slug         string             `json:"slug" gorm:"type:varchar(300)"`
	File         string             `json:"file" gorm:"type:varchar(500);not null"`
	FileSize     int64              `json:"file_size"`
	Description  string             `json:"description" gorm:"type:text"`
	IsMandatory  bool               `json:"is_mandatory" gorm:"default:true"`
	UploadedAt   time.Time          `json:"uploaded_at" gorm:"autoCreateTime"`
}

// BeforeCreate hook assigns the record identifier and slug
func (d *TenderDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Slug == "" {
		d.Slug = slug.Make(fmt.Sprintf("%s-%s", d.Title, d.ID))
	}
	return nil
}

// TenderAmendment represents an append-only, versioned change to a
// published tender.
type TenderAmendment struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenderID        uuid.UUID  `json:"tender_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_tender_amendment_no,priority:1"`
	AmendmentNumber int        `json:"amendment_number" gorm:"not null;uniqueIndex:idx_tender_amendment_no,priority:2"`
	Slug            string     `json:"slug" gorm:"type:varchar(300)"`
	Title           string     `json:"title" gorm:"type:varchar(255);not null"`
	Description     string     `json:"description" gorm:"type:text"`
	AffectsDeadline bool       `json:"affects_submission_deadline" gorm:"default:false"`
	NewDeadline     *time.Time `json:"new_submission_deadline,omitempty"`
	AffectsValue    bool       `json:"affects_estimated_value" gorm:"default:false"`
	NewValue        *float64   `json:"new_estimated_value,omitempty"`
	Document        string     `json:"document" gorm:"type:varchar(500)"`
	PublishedAt     time.Time  `json:"published_at" gorm:"autoCreateTime"`
}

// BeforeCreate hook assigns the record identifier and slug
func (a *TenderAmendment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Slug == "" {
		a.Slug = slug.Make(fmt.Sprintf("%s-amendment-%d", a.Title, a.AmendmentNumber))
	}
	return nil
}
