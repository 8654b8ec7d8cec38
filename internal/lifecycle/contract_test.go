package lifecycle_test

import (
	"testing"
	"time"

	"tender-service/internal/apperr"
	"tender-service/internal/lifecycle"
	"tender-service/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// awardedContract walks a tender through publish, bid, close,
// evaluation and award, returning the draft contract.
func awardedContract(t *testing.T, svc *lifecycle.Service, db *gorm.DB, number string) (*model.Contract, *model.Vendor, *model.User) {
	t.Helper()
	tender := publishedTender(t, svc, db, number)
	vendor, user := seedVendor(t, db, "Contractor "+number)
	bid := submitBid(t, svc, tender, vendor, 1_000_000)
	_, err := svc.CloseTender(tender.ID)
	require.NoError(t, err)
	evaluateBid(t, svc, db, tender, bid, 90, 85)
	_, err = svc.DecideBid(bid.ID)
	require.NoError(t, err)
	_, contract, err := svc.AwardBid(bid.ID, lifecycle.AwardInput{})
	require.NoError(t, err)
	return contract, vendor, user
}

// activeContract signs both parties and activates the awarded contract.
func activeContract(t *testing.T, svc *lifecycle.Service, db *gorm.DB, number string) (*model.Contract, *model.Vendor, *model.User) {
	t.Helper()
	contract, vendor, user := awardedContract(t, svc, db, number)
	_, err := svc.SignContract(contract.ID, lifecycle.PartyOrganization)
	require.NoError(t, err)
	_, err = svc.SignContract(contract.ID, lifecycle.PartyVendor)
	require.NoError(t, err)
	activated, err := svc.ActivateContract(contract.ID)
	require.NoError(t, err)
	return activated, vendor, user
}

func TestActivateContractRequiresBothSignatures(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := awardedContract(t, svc, db, "CT/2026/001")

	_, err := svc.ActivateContract(contract.ID)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "signatures", validation.Field)

	_, err = svc.SignContract(contract.ID, "witness")
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "party", validation.Field)

	signed, err := svc.SignContract(contract.ID, lifecycle.PartyOrganization)
	require.NoError(t, err)
	require.True(t, signed.SignedByOrganization)
	_, err = svc.ActivateContract(contract.ID)
	require.ErrorAs(t, err, &validation)

	_, err = svc.SignContract(contract.ID, lifecycle.PartyVendor)
	require.NoError(t, err)
	activated, err := svc.ActivateContract(contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContractStatusActive, activated.Status)

	_, err = svc.SignContract(contract.ID, lifecycle.PartyVendor)
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "active", state.From)
}

func TestContractSuspendResumeTerminate(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := activeContract(t, svc, db, "CT/2026/002")

	suspended, err := svc.SuspendContract(contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContractStatusSuspended, suspended.Status)

	resumed, err := svc.ResumeContract(contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContractStatusActive, resumed.Status)

	terminated, err := svc.TerminateContract(contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContractStatusTerminated, terminated.Status)

	_, err = svc.ActivateContract(contract.ID)
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "terminated", state.From)
}

func TestCompleteContractFromActiveOnly(t *testing.T) {
	svc, db := newService(t)
	draft, _, _ := awardedContract(t, svc, db, "CT/2026/003")

	_, err := svc.CompleteContract(draft.ID)
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "draft", state.From)

	contract, _, _ := activeContract(t, svc, db, "CT/2026/004")
	completed, err := svc.CompleteContract(contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.ContractStatusCompleted, completed.Status)
}

func TestCreateMilestoneSequenceAndCap(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := activeContract(t, svc, db, "CT/2026/005")

	first := &model.Milestone{
		ContractID: contract.ID,
		Title:      "Mobilization",
		Amount:     400_000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, svc.CreateMilestone(first))
	require.Equal(t, 1, first.SequenceNumber)
	require.Equal(t, model.MilestoneStatusPending, first.Status)
	require.InDelta(t, 40, first.PercentageOfTotal, 0.001)

	second := &model.Milestone{
		ContractID: contract.ID,
		Title:      "Delivery",
		Amount:     400_000,
		DueDate:    time.Now().AddDate(0, 2, 0),
	}
	require.NoError(t, svc.CreateMilestone(second))
	require.Equal(t, 2, second.SequenceNumber)

	err := svc.CreateMilestone(&model.Milestone{
		ContractID:     contract.ID,
		Title:          "Duplicate",
		SequenceNumber: 2,
		Amount:         100_000,
		DueDate:        time.Now().AddDate(0, 2, 0),
	})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "milestone", conflict.Resource)

	err = svc.CreateMilestone(&model.Milestone{
		ContractID: contract.ID,
		Title:      "Over budget",
		Amount:     300_000,
		DueDate:    time.Now().AddDate(0, 3, 0),
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "amount", validation.Field)
}

func TestCreateMilestoneRejectedOnTerminalContract(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := activeContract(t, svc, db, "CT/2026/006")
	_, err := svc.TerminateContract(contract.ID)
	require.NoError(t, err)

	err = svc.CreateMilestone(&model.Milestone{
		ContractID: contract.ID,
		Title:      "Too late",
		Amount:     100_000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	})
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "terminated", state.From)
}

func TestMilestoneFlowThroughPayment(t *testing.T) {
	svc, db := newService(t)
	contract, _, user := activeContract(t, svc, db, "CT/2026/007")
	milestone := &model.Milestone{
		ContractID: contract.ID,
		Title:      "Foundation",
		Amount:     250_000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, svc.CreateMilestone(milestone))

	started, err := svc.StartMilestone(milestone.ID)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusInProgress, started.Status)

	completed, err := svc.CompleteMilestone(milestone.ID)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletionDate)

	_, err = svc.VerifyMilestone(milestone.ID, "")
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "verification_document", validation.Field)

	verified, err := svc.VerifyMilestone(milestone.ID, "documents/foundation-report.pdf")
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusVerified, verified.Status)

	_, err = svc.PayMilestone(milestone.ID, "")
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "payment_receipt", validation.Field)

	paid, err := svc.PayMilestone(milestone.ID, "RCPT-0001")
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyPaymentReleased, milestone.ID))

	_, err = svc.PayMilestone(milestone.ID, "RCPT-0002")
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "paid", state.From)
}

func TestVerifyMilestoneStraightFromPending(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := activeContract(t, svc, db, "CT/2026/008")
	milestone := &model.Milestone{
		ContractID: contract.ID,
		Title:      "As-built drawings",
		Amount:     50_000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, svc.CreateMilestone(milestone))

	verified, err := svc.VerifyMilestone(milestone.ID, "documents/drawings.pdf")
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusVerified, verified.Status)
	require.NotNil(t, verified.CompletionDate)
}

func TestDelayMilestoneAndRecover(t *testing.T) {
	svc, db := newService(t)
	contract, _, _ := activeContract(t, svc, db, "CT/2026/009")
	milestone := &model.Milestone{
		ContractID: contract.ID,
		Title:      "Roofing",
		Amount:     150_000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, svc.CreateMilestone(milestone))

	delayed, err := svc.DelayMilestone(milestone.ID)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusDelayed, delayed.Status)

	resumed, err := svc.StartMilestone(milestone.ID)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusInProgress, resumed.Status)

	_, err = svc.PayMilestone(milestone.ID, "RCPT-0003")
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "in_progress", state.From)
}

func TestReviewContractUpdatesVendorRating(t *testing.T) {
	svc, db := newService(t)
	contract, vendor, _ := activeContract(t, svc, db, "CT/2026/010")
	reviewer := seedUser(t, db, model.RoleOrganization)

	err := svc.ReviewContract(&model.Review{
		ContractID:            contract.ID,
		ReviewerID:            reviewer.ID,
		QualityRating:         5,
		TimelinessRating:      4,
		ProfessionalismRating: 5,
	})
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "active", state.From)

	_, err = svc.CompleteContract(contract.ID)
	require.NoError(t, err)

	err = svc.ReviewContract(&model.Review{
		ContractID:            contract.ID,
		ReviewerID:            reviewer.ID,
		QualityRating:         6,
		TimelinessRating:      4,
		ProfessionalismRating: 5,
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "quality_rating", validation.Field)

	review := &model.Review{
		ContractID:            contract.ID,
		ReviewerID:            reviewer.ID,
		QualityRating:         5,
		TimelinessRating:      4,
		ProfessionalismRating: 5,
		WouldWorkAgain:        true,
	}
	require.NoError(t, svc.ReviewContract(review))
	require.InDelta(t, 14.0/3, review.OverallRating, 0.001)

	var updated model.Vendor
	require.NoError(t, db.First(&updated, "id = ?", vendor.ID).Error)
	require.InDelta(t, 14.0/3, updated.Rating, 0.001)
	require.Equal(t, 1, updated.TotalReviews)

	err = svc.ReviewContract(&model.Review{
		ContractID:            contract.ID,
		ReviewerID:            reviewer.ID,
		QualityRating:         3,
		TimelinessRating:      3,
		ProfessionalismRating: 3,
	})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "review", conflict.Resource)
}
