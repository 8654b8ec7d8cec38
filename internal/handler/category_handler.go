package handler

import (
	"net/http"
	"time"

	"tender-service/internal/model"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryRequest defines the structure for category creation/update
// requests
type CategoryRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// CategoryTreeNode is one category in the tree listing with its
// published tender count.
type CategoryTreeNode struct {
	Category      model.TenderCategory `json:"category"`
	TenderCount   int64                `json:"tender_count"`
	Subcategories []CategoryTreeNode   `json:"subcategories"`
}

// CreateCategory creates a new tender category
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating category")

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	category := model.TenderCategory{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		ParentID:    req.ParentID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := svc.CreateCategory(&category); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Category created successfully",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory renames or re-parents a category
func UpdateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid category ID"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	category, err := svc.UpdateCategory(id, &model.TenderCategory{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		ParentID:    req.ParentID,
	})
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Category updated successfully", zap.String("category_id", category.ID.String()))
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes an unused category
func DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := uuidParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid category ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := svc.DeleteCategory(id); err != nil {
		return writeError(c, log, err)
	}

	log.Info("Category deleted successfully", zap.String("category_id", id.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}

// ListCategories returns the category tree with published tender
// counts per category
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var categories []model.TenderCategory
	if err := database.GetDB().Order("name asc").Find(&categories).Error; err != nil {
		log.Error("Failed to retrieve categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	counts, err := publishedTenderCounts()
	if err != nil {
		log.Error("Failed to count tenders per category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	children := make(map[uuid.UUID][]model.TenderCategory)
	var roots []model.TenderCategory
	for _, category := range categories {
		if category.ParentID == nil {
			roots = append(roots, category)
		} else {
			children[*category.ParentID] = append(children[*category.ParentID], category)
		}
	}

	tree := make([]CategoryTreeNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, buildCategoryNode(root, children, counts))
	}

	return c.JSON(http.StatusOK, echo.Map{"categories": tree})
}

// GetCategory retrieves one category by slug with its subcategories
func GetCategory(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var category model.TenderCategory
	if err := database.GetDB().
		Preload("Subcategories").
		Where("slug = ?", c.Param("slug")).
		First(&category).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}

	var count int64
	database.GetDB().Model(&model.Tender{}).
		Where("category_id = ? AND status = ?", category.ID, model.TenderStatusPublished).
		Count(&count)

	log.Info("Category retrieved successfully", zap.String("slug", category.Slug))
	return c.JSON(http.StatusOK, echo.Map{
		"category":     category,
		"tender_count": count,
	})
}

// ListCategoryTenders retrieves the published tenders in a category
func ListCategoryTenders(c echo.Context) error {
	log := logger.FromContext(c)

	var category model.TenderCategory
	if err := database.GetDB().Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.Tender{}).
		Where("category_id = ? AND status = ?", category.ID, model.TenderStatusPublished)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	query.Count(&total)

	var tenders []model.Tender
	if err := query.Preload("Organization").
		Order("submission_deadline asc").
		Limit(limit).
		Offset(offset).
		Find(&tenders).Error; err != nil {
		log.Error("Failed to retrieve category tenders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve category tenders",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"category":   category,
		"tenders":    tenders,
		"pagination": paginationMap(page, limit, total),
	})
}

// buildCategoryNode assembles one tree node recursively.
func buildCategoryNode(category model.TenderCategory, children map[uuid.UUID][]model.TenderCategory, counts map[uuid.UUID]int64) CategoryTreeNode {
	node := CategoryTreeNode{
		Category:      category,
		TenderCount:   counts[category.ID],
		Subcategories: []CategoryTreeNode{},
	}
	for _, child := range children[category.ID] {
		node.Subcategories = append(node.Subcategories, buildCategoryNode(child, children, counts))
	}
	return node
}

// publishedTenderCounts groups published tender counts by category.
func publishedTenderCounts() (map[uuid.UUID]int64, error) {
	type row struct {
		CategoryID uuid.UUID
		Count      int64
	}
	var rows []row
	err := database.GetDB().Model(&model.Tender{}).
		Select("category_id, COUNT(*) as count").
		Where("status = ? AND category_id IS NOT NULL", model.TenderStatusPublished).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}
