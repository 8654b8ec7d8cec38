package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles recognised by the authorization middleware.
const (
	RoleAdmin        = "admin"
	RoleOrganization = "organization"
	RoleVendor       = "vendor"
)

// User represents an authenticated actor. Tokens are issued by the
// external auth service; this table backs notification recipients and
// actor references on audited records.
type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string     `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password       string     `json:"-" gorm:"type:varchar(255)"`
	FirstName      string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName       string     `json:"last_name" gorm:"type:varchar(100)"`
	Role           string     `json:"role" gorm:"type:varchar(20);index;default:'vendor'"`
	VendorID       *uuid.UUID `json:"vendor_id,omitempty" gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook assigns the record identifier
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
