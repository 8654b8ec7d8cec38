package lifecycle_test

import (
	"testing"

	"tender-service/internal/apperr"
	"tender-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestAskClarificationPublishedOnly(t *testing.T) {
	svc, db := newService(t)
	org := seedOrganization(t, db, "Ministry of Water", true)
	category := seedCategory(t, db, "Boreholes")
	draft := draftTender(t, svc, org, category, "MW/2026/001")
	vendor, _ := seedVendor(t, db, "Drillers Ltd")

	err := svc.AskClarification(&model.Clarification{
		TenderID: draft.ID,
		VendorID: vendor.ID,
		Question: "Is the site survey available?",
	})
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "draft", state.From)

	err = svc.AskClarification(&model.Clarification{TenderID: draft.ID, VendorID: vendor.ID})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "question", validation.Field)

	published := publishedTender(t, svc, db, "MW/2026/002")
	clarification := &model.Clarification{
		TenderID: published.ID,
		VendorID: vendor.ID,
		Question: "Is the site survey available?",
	}
	require.NoError(t, svc.AskClarification(clarification))
	require.False(t, clarification.IsAnswered)
}

func TestAnswerClarificationOnceAndNotify(t *testing.T) {
	svc, db := newService(t)
	tender := publishedTender(t, svc, db, "MW/2026/003")
	vendor, user := seedVendor(t, db, "Pump Masters Ltd")
	clarification := &model.Clarification{
		TenderID: tender.ID,
		VendorID: vendor.ID,
		Question: "What is the expected flow rate?",
	}
	require.NoError(t, svc.AskClarification(clarification))

	_, err := svc.AnswerClarification(clarification.ID, "")
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "answer", validation.Field)

	answered, err := svc.AnswerClarification(clarification.ID, "At least 5 cubic meters per hour.")
	require.NoError(t, err)
	require.True(t, answered.IsAnswered)
	require.NotNil(t, answered.AnsweredAt)
	require.EqualValues(t, 1, notificationCount(t, db, user.ID, model.NotifyClarificationAnswered, clarification.ID))

	_, err = svc.AnswerClarification(clarification.ID, "Revised answer.")
	var state *apperr.StateError
	require.ErrorAs(t, err, &state)
	require.Equal(t, "answered", state.From)
}
