package lifecycle_test

import (
	"testing"
	"time"

	"tender-service/internal/apperr"
	"tender-service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateTenderValidation(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Ministry of Works", true)

	err := svc.CreateTender(&model.Tender{Title: "No number", OrganizationID: org.ID, EstimatedValue: 100})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "tender_number", validation.Field)

	err = svc.CreateTender(&model.Tender{TenderNumber: "T-1", OrganizationID: org.ID, EstimatedValue: 100})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "title", validation.Field)

	err = svc.CreateTender(&model.Tender{TenderNumber: "T-1", Title: "Free", OrganizationID: org.ID})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "estimated_value", validation.Field)

	deadline := hoursFromNow(48)
	opening := hoursFromNow(24)
	err = svc.CreateTender(&model.Tender{
		TenderNumber:       "T-1",
		Title:              "Backwards dates",
		OrganizationID:     org.ID,
		EstimatedValue:     100,
		SubmissionDeadline: deadline,
		OpeningDate:        opening,
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "submission_deadline", validation.Field)
}

func TestCreateTenderDuplicateNumber(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Ministry of Works", true)

	first := &model.Tender{TenderNumber: "MOW/2026/001", Title: "Road works", OrganizationID: org.ID, EstimatedValue: 100}
	require.NoError(t, svc.CreateTender(first))
	require.Equal(t, model.TenderStatusDraft, first.Status)

	err := svc.CreateTender(&model.Tender{TenderNumber: "MOW/2026/001", Title: "Other", OrganizationID: org.ID, EstimatedValue: 100})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestPublishTenderRequiresVerifiedOrganization(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Unverified Agency", false)
	category := seedCategory(t, db, "Construction")
	tender := draftTender(t, svc, org, category, "UA/2026/001")

	_, err := svc.PublishTender(tender.ID)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "organization", validation.Field)
	require.Equal(t, model.TenderStatusDraft, reloadTender(t, db, tender.ID).Status)
}

func TestPublishTenderRequiresCategoryAndDates(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Ministry of Health", true)

	noCategory := draftTender(t, svc, org, nil, "MOH/2026/001")
	_, err := svc.PublishTender(noCategory.ID)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "category_id", validation.Field)

	category := seedCategory(t, db, "Medical Equipment")
	noDates := &model.Tender{
		TenderNumber:   "MOH/2026/002",
		Title:          "X-ray machines",
		OrganizationID: org.ID,
		CategoryID:     &category.ID,
		EstimatedValue: 5_000_000,
	}
	require.NoError(t, svc.CreateTender(noDates))
	_, err = svc.PublishTender(noDates.ID)
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "submission_deadline", validation.Field)
}

func TestPublishTenderNotifiesCategoryVendors(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Kenya Power", true)
	category := seedCategory(t, db, "Electrical")
	other := seedCategory(t, db, "Catering")

	insider, insiderUser := seedVendor(t, db, "Volt Works Ltd")
	require.NoError(t, db.Model(insider).Association("Categories").Append(category))
	outsider, outsiderUser := seedVendor(t, db, "Tasty Bites Ltd")
	require.NoError(t, db.Model(outsider).Association("Categories").Append(other))

	tender := draftTender(t, svc, org, category, "KP/2026/001")
	published, err := svc.PublishTender(tender.ID)
	require.NoError(t, err)
	require.Equal(t, model.TenderStatusPublished, published.Status)
	require.NotNil(t, published.PublicationDate)

	require.EqualValues(t, 1, notificationCount(t, db, insiderUser.ID, model.NotifyTenderPublished, tender.ID))
	require.EqualValues(t, 0, notificationCount(t, db, outsiderUser.ID, model.NotifyTenderPublished, tender.ID))
}

func TestPublishTenderTwiceRejected(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "KP/2026/002")

	_, err := svc.PublishTender(tender.ID)
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "published", state.From)
}

func TestUpdateTenderDraftOnly(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "KP/2026/003")

	_, err := svc.UpdateTender(tender.ID, &model.Tender{Title: "Renamed"})
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
}

func TestAmendTenderMovesDeadline(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "KP/2026/004")
	vendor, user := seedVendor(t, db, "Grid Masters Ltd")
	submitBid(t, svc, tender, vendor, 900_000)

	newDeadline := hoursFromNow(36)
	amendment, err := svc.AmendTender(tender.ID, &model.TenderAmendment{
		Title:           "Deadline extension",
		AffectsDeadline: true,
		NewDeadline:     newDeadline,
	})
	require.NoError(t, err)
	require.Equal(t, 1, amendment.AmendmentNumber)

	updated := reloadTender(t, db, tender.ID)
	require.WithinDuration(t, *newDeadline, *updated.SubmissionDeadline, time.Second)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyAmendmentPublished, amendment.ID))

	second, err := svc.AmendTender(tender.ID, &model.TenderAmendment{Title: "Scope note"})
	require.NoError(t, err)
	require.Equal(t, 2, second.AmendmentNumber)
}

func TestAmendTenderValidation(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "County of Nakuru", true)
	category := seedCategory(t, db, "Roads")
	draft := draftTender(t, svc, org, category, "CN/2026/001")

	_, err := svc.AmendTender(draft.ID, &model.TenderAmendment{Title: "Too early"})
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "draft", state.From)

	published := publishedTender(t, svc, db, "CN/2026/002")
	past := hoursFromNow(-1)
	_, err = svc.AmendTender(published.ID, &model.TenderAmendment{
		Title:           "Backdated",
		AffectsDeadline: true,
		NewDeadline:     past,
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "new_submission_deadline", validation.Field)
}

func TestCancelTenderOnlyFromClosed(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "KP/2026/005")
	vendor, user := seedVendor(t, db, "Copper Lines Ltd")
	submitBid(t, svc, tender, vendor, 750_000)

	_, err := svc.CancelTender(tender.ID, "")
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "reason", validation.Field)

	_, err = svc.CancelTender(tender.ID, "budget withdrawn")
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "published", state.From)

	_, err = svc.CloseTender(tender.ID)
	require.NoError(t, err)
	cancelled, err := svc.CancelTender(tender.ID, "budget withdrawn")
	require.NoError(t, err)
	require.Equal(t, model.TenderStatusCancelled, cancelled.Status)
	require.Equal(t, "budget withdrawn", cancelled.CancelledReason)

	ref := uuid.NewSHA1(tender.ID, []byte(model.TenderStatusCancelled))
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyBidStatusChange, ref))
}

func TestDeleteTenderDraftOnly(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Ministry of Lands", true)
	category := seedCategory(t, db, "Survey")
	draft := draftTender(t, svc, org, category, "ML/2026/001")
	require.NoError(t, db.Create(&model.TenderDocument{
		TenderID:     draft.ID,
		DocumentType: model.TenderDocNotice,
		Title:        "Notice",
		File:         "documents/notice.pdf",
	}).Error)

	require.NoError(t, svc.DeleteTender(draft.ID))
	var docs int64
	db.Model(&model.TenderDocument{}).Where("tender_id = ?", draft.ID).Count(&docs)
	require.Zero(t, docs)

	published := publishedTender(t, svc, db, "ML/2026/002")
	err := svc.DeleteTender(published.ID)
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
}

func TestSweepClosesExpiredTenders(t *testing.T) {
	svc, db := newService(t)
	expiring := publishedTender(t, svc, db, "SW/2026/001")
	open := publishedTender(t, svc, db, "SW/2026/002")
	require.NoError(t, db.Model(&model.Tender{}).Where("id = ?", open.ID).
		Update("submission_deadline", time.Now().Add(96*time.Hour)).Error)

	result, err := svc.SweepDeadlines(time.Now().Add(30 * time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Closed)
	require.Equal(t, model.TenderStatusClosed, reloadTender(t, db, expiring.ID).Status)
	require.Equal(t, model.TenderStatusPublished, reloadTender(t, db, open.ID).Status)

	again, err := svc.SweepDeadlines(time.Now().Add(30 * time.Hour))
	require.NoError(t, err)
	require.Zero(t, again.Closed)
}

func TestSweepNotifiesClosingSoonOnce(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "SW/2026/003")
	vendor, user := seedVendor(t, db, "Deadline Watchers Ltd")
	submitBid(t, svc, tender, vendor, 500_000)

	now := time.Now()
	result, err := svc.SweepDeadlines(now)
	require.NoError(t, err)
	require.Equal(t, 1, result.ClosingSoon)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyTenderClosing, tender.ID))

	_, err = svc.SweepDeadlines(now)
	require.NoError(t, err)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyTenderClosing, tender.ID))
}

func TestSweepNotifiesMilestonesDue(t *testing.T) {
	svc, db := newService(t)
	vendor, user := seedVendor(t, db, "Steady Builders Ltd")
	org := seedOrganization(t, db, "County of Kisumu", true)
	category := seedCategory(t, db, "Construction")
	tender := draftTender(t, svc, org, category, "CK/2026/001")
	bid := &model.Bid{
		BidNumber:   "BID-CK/2026/001-001",
		TenderID:    tender.ID,
		VendorID:    vendor.ID,
		Amount:      800_000,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, db.Create(bid).Error)
	contract := &model.Contract{
		ContractNumber: "CNT-2026-0001",
		TenderID:       tender.ID,
		WinningBidID:   bid.ID,
		VendorID:       vendor.ID,
		ContractValue:  800_000,
		StartDate:      time.Now(),
		EndDate:        time.Now().AddDate(0, 3, 0),
		Status:         model.ContractStatusActive,
	}
	require.NoError(t, db.Create(contract).Error)
	milestone := &model.Milestone{
		ContractID:     contract.ID,
		Title:          "Site mobilization",
		SequenceNumber: 1,
		Amount:         200_000,
		DueDate:        time.Now().Add(12 * time.Hour),
		Status:         model.MilestoneStatusPending,
	}
	require.NoError(t, db.Create(milestone).Error)

	result, err := svc.SweepDeadlines(time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, result.MilestonesDue)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyMilestoneDue, milestone.ID))
}

func TestRecordTenderView(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "KP/2026/006")

	svc.RecordTenderView(tender.ID)
	svc.RecordTenderView(tender.ID)
	require.Equal(t, 2, reloadTender(t, db, tender.ID).ViewsCount)
}
