package model_test

import (
	"testing"
	"time"

	"tender-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestTenderAcceptingBids(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	open := model.Tender{Status: model.TenderStatusPublished, SubmissionDeadline: &future}
	require.True(t, open.AcceptingBids(now))

	expired := model.Tender{Status: model.TenderStatusPublished, SubmissionDeadline: &past}
	require.False(t, expired.AcceptingBids(now))

	atDeadline := model.Tender{Status: model.TenderStatusPublished, SubmissionDeadline: &now}
	require.False(t, atDeadline.AcceptingBids(now))

	draft := model.Tender{Status: model.TenderStatusDraft, SubmissionDeadline: &future}
	require.False(t, draft.AcceptingBids(now))

	undated := model.Tender{Status: model.TenderStatusPublished}
	require.False(t, undated.AcceptingBids(now))
}
