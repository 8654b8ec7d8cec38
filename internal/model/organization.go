package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// OrganizationType classifies procuring entities.
type OrganizationType string

const (
	OrgTypeGovernment   OrganizationType = "government"
	OrgTypePrivate      OrganizationType = "private"
	OrgTypeConstruction OrganizationType = "construction"
	OrgTypeMilitary     OrganizationType = "military"
	OrgTypeEducation    OrganizationType = "education"
	OrgTypeHealthcare   OrganizationType = "healthcare"
	OrgTypeNGO          OrganizationType = "ngo"
	OrgTypeParastatal   OrganizationType = "parastatal"
	OrgTypeMunicipality OrganizationType = "municipality"
	OrgTypeOther        OrganizationType = "other"
)

// Organization represents a procuring entity that posts tenders
type Organization struct {
	ID                 uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string           `json:"name" gorm:"type:varchar(255);index;not null"`
	Slug               string           `json:"slug" gorm:"type:varchar(300);uniqueIndex"`
	OrganizationType   OrganizationType `json:"organization_type" gorm:"type:varchar(50)"`
	RegistrationNumber string           `json:"registration_number" gorm:"type:varchar(100);uniqueIndex"`
	TaxID              string           `json:"tax_id" gorm:"type:varchar(100)"`
	Email              string           `json:"email" gorm:"type:varchar(100)"`
	Phone              string           `json:"phone" gorm:"type:varchar(20)"`
	Website            string           `json:"website" gorm:"type:varchar(255)"`
	Address            string           `json:"address" gorm:"type:text"`
	City               string           `json:"city" gorm:"type:varchar(100)"`
	Country            string           `json:"country" gorm:"type:varchar(100)"`
	Logo               string           `json:"logo" gorm:"type:varchar(255)"`
	IsVerified         bool             `json:"is_verified" gorm:"default:false"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// BeforeCreate hook assigns the record identifier and slug
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Slug == "" {
		o.Slug = slug.Make(o.Name)
	}
	return nil
}
