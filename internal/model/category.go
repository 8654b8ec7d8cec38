package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TenderCategory represents a category in the tender classification
// tree. Parent links may not form a cycle, which is validated when a
// category is created or re-parented.
type TenderCategory struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(120);uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	Icon        string     `json:"icon" gorm:"type:varchar(50)"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Parent        *TenderCategory  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Subcategories []TenderCategory `json:"subcategories,omitempty" gorm:"foreignKey:ParentID"`
}

// BeforeCreate hook assigns the record identifier and slug
func (c *TenderCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}
