package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// BusinessType classifies vendor legal structures.
type BusinessType string

const (
	BusinessSoleProprietor BusinessType = "sole_proprietor"
	BusinessPartnership    BusinessType = "partnership"
	BusinessLLC            BusinessType = "llc"
	BusinessCorporation    BusinessType = "corporation"
	BusinessCooperative    BusinessType = "cooperative"
)

// Vendor represents a company that bids on tenders
type Vendor struct {
	ID                 uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             *uuid.UUID   `json:"user_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	CompanyName        string       `json:"company_name" gorm:"type:varchar(255);index;not null"`
	Slug               string       `json:"slug" gorm:"type:varchar(300);uniqueIndex"`
	BusinessType       BusinessType `json:"business_type" gorm:"type:varchar(50)"`
	RegistrationNumber string       `json:"registration_number" gorm:"type:varchar(100);uniqueIndex"`
	TaxID              string       `json:"tax_id" gorm:"type:varchar(100)"`

	// Contact
	Email   string `json:"email" gorm:"type:varchar(100)"`
	Phone   string `json:"phone" gorm:"type:varchar(20)"`
	Website string `json:"website" gorm:"type:varchar(255)"`

	// Address
	Address    string `json:"address" gorm:"type:text"`
	City       string `json:"city" gorm:"type:varchar(100)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`
	PostalCode string `json:"postal_code" gorm:"type:varchar(20)"`

	// Business info
	YearEstablished   int     `json:"year_established"`
	NumberOfEmployees int     `json:"number_of_employees"`
	AnnualTurnover    float64 `json:"annual_turnover"`

	// Capabilities
	Categories   []TenderCategory `json:"categories,omitempty" gorm:"many2many:vendor_categories"`
	ServiceAreas string           `json:"service_areas" gorm:"type:text"`

	// Verification
	IsVerified            bool   `json:"is_verified" gorm:"default:false"`
	IsBlacklisted         bool   `json:"is_blacklisted" gorm:"default:false"`
	VerificationDocuments string `json:"verification_documents" gorm:"type:varchar(500)"`

	// Ratings
	Rating       float64 `json:"rating" gorm:"default:0"`
	TotalReviews int     `json:"total_reviews" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook assigns the record identifier and slug
func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Slug == "" {
		v.Slug = slug.Make(v.CompanyName)
	}
	return nil
}
