package lifecycle

import (
	"tender-service/internal/apperr"
	"tender-service/internal/model"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CreateCategory stores a new tender category under an optional parent.
func (s *Service) CreateCategory(c *model.TenderCategory) error {
	if c.Name == "" {
		return apperr.Validation("name", "is required")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if c.ParentID != nil {
			var parent model.TenderCategory
			if err := tx.First(&parent, "id = ?", *c.ParentID).Error; err != nil {
				return notFoundOr(err, "category")
			}
		}
		var count int64
		tx.Model(&model.TenderCategory{}).Where("slug = ?", slug.Make(c.Name)).Count(&count)
		if count > 0 {
			return apperr.Conflict("category", "a category with this name already exists")
		}
		return conflictOr(tx.Create(c).Error, "category", "a category with this name already exists")
	})
}

// UpdateCategory renames or re-parents a category. Re-parenting is
// rejected when it would close a cycle in the tree.
func (s *Service) UpdateCategory(id uuid.UUID, input *model.TenderCategory) (*model.TenderCategory, error) {
	var category model.TenderCategory
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "category")
		}

		if input.Name != "" && input.Name != category.Name {
			newSlug := slug.Make(input.Name)
			var count int64
			tx.Model(&model.TenderCategory{}).
				Where("slug = ? AND id <> ?", newSlug, id).
				Count(&count)
			if count > 0 {
				return apperr.Conflict("category", "a category with this name already exists")
			}
			category.Name = input.Name
			category.Slug = newSlug
		}
		if input.Description != "" {
			category.Description = input.Description
		}
		if input.Icon != "" {
			category.Icon = input.Icon
		}
		if input.ParentID != nil {
			if *input.ParentID == id {
				return apperr.Validation("parent_id", "category cannot be its own parent")
			}
			if err := checkCategoryCycle(tx, id, *input.ParentID); err != nil {
				return err
			}
			category.ParentID = input.ParentID
		}
		return tx.Save(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category that has no subcategories and no
// tenders.
func (s *Service) DeleteCategory(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var category model.TenderCategory
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "category")
		}
		var children int64
		tx.Model(&model.TenderCategory{}).Where("parent_id = ?", id).Count(&children)
		if children > 0 {
			return apperr.Conflict("category", "has subcategories")
		}
		var tenders int64
		tx.Model(&model.Tender{}).Where("category_id = ?", id).Count(&tenders)
		if tenders > 0 {
			return apperr.Conflict("category", "is in use by tenders")
		}
		return tx.Delete(&category).Error
	})
}

// checkCategoryCycle walks up from the proposed parent. Reaching the
// category being re-parented means the new edge would close a cycle.
func checkCategoryCycle(tx *gorm.DB, categoryID, parentID uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	current := &parentID
	for current != nil {
		if *current == categoryID {
			return apperr.Validation("parent_id", "would create a cycle in the category tree")
		}
		if seen[*current] {
			return nil
		}
		seen[*current] = true

		var ancestor model.TenderCategory
		if err := tx.First(&ancestor, "id = ?", *current).Error; err != nil {
			return notFoundOr(err, "category")
		}
		current = ancestor.ParentID
	}
	return nil
}
