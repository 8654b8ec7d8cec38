package lifecycle_test

import (
	"testing"

	"tender-service/internal/apperr"
	"tender-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestCreateCategoryDuplicateName(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.CreateCategory(&model.TenderCategory{Name: "Civil Works"}))

	err := svc.CreateCategory(&model.TenderCategory{Name: "Civil Works"})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)

	err = svc.CreateCategory(&model.TenderCategory{})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "name", validation.Field)
}

func TestCreateCategoryUnderParent(t *testing.T) {
	svc, _ := newService(t)

	parent := &model.TenderCategory{Name: "Construction"}
	require.NoError(t, svc.CreateCategory(parent))

	child := &model.TenderCategory{Name: "Roads", ParentID: &parent.ID}
	require.NoError(t, svc.CreateCategory(child))
	require.Equal(t, "roads", child.Slug)
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	svc, _ := newService(t)

	a := &model.TenderCategory{Name: "A Works"}
	require.NoError(t, svc.CreateCategory(a))
	b := &model.TenderCategory{Name: "B Works", ParentID: &a.ID}
	require.NoError(t, svc.CreateCategory(b))
	c := &model.TenderCategory{Name: "C Works", ParentID: &b.ID}
	require.NoError(t, svc.CreateCategory(c))

	_, err := svc.UpdateCategory(a.ID, &model.TenderCategory{ParentID: &c.ID})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "parent_id", validation.Field)

	_, err = svc.UpdateCategory(a.ID, &model.TenderCategory{ParentID: &a.ID})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "parent_id", validation.Field)

	updated, err := svc.UpdateCategory(c.ID, &model.TenderCategory{ParentID: &a.ID})
	require.NoError(t, err)
	require.Equal(t, a.ID, *updated.ParentID)
}

func TestUpdateCategoryRename(t *testing.T) {
	svc, _ := newService(t)

	first := &model.TenderCategory{Name: "Old Name"}
	require.NoError(t, svc.CreateCategory(first))
	second := &model.TenderCategory{Name: "Taken Name"}
	require.NoError(t, svc.CreateCategory(second))

	_, err := svc.UpdateCategory(first.ID, &model.TenderCategory{Name: "Taken Name"})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)

	renamed, err := svc.UpdateCategory(first.ID, &model.TenderCategory{Name: "New Name"})
	require.NoError(t, err)
	require.Equal(t, "new-name", renamed.Slug)
}

func TestDeleteCategoryGuards(t *testing.T) {
	svc, db := newService(t)

	parent := &model.TenderCategory{Name: "Parent Works"}
	require.NoError(t, svc.CreateCategory(parent))
	child := &model.TenderCategory{Name: "Child Works", ParentID: &parent.ID}
	require.NoError(t, svc.CreateCategory(child))

	err := svc.DeleteCategory(parent.ID)
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)

	org := seedOrganization(t, db, "Ministry of Sport", true)
	tender := draftTender(t, svc, org, child, "MS/2026/001")
	err = svc.DeleteCategory(child.ID)
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, svc.DeleteTender(tender.ID))
	require.NoError(t, svc.DeleteCategory(child.ID))
	require.NoError(t, svc.DeleteCategory(parent.ID))
}
