package notify_test

import (
	"testing"

	"tender-service/internal/model"
	"tender-service/internal/notify"
	"tender-service/pkg/config"
	"tender-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recorder captures delivered notifications.
type recorder struct {
	delivered []model.Notification
}

func (r *recorder) Deliver(n model.Notification) {
	r.delivered = append(r.delivered, n)
}

func notificationDB(t *testing.T) *gorm.DB {
	t.Helper()
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Notification{}))
	return db
}

func TestDispatchStoresAndDelivers(t *testing.T) {
	db := notificationDB(t)
	sink := &recorder{}
	dispatcher := notify.NewDispatcher(sink, false)

	recipient := uuid.New()
	reference := uuid.New()
	err := dispatcher.Dispatch(db, notify.Event{
		Recipient: recipient,
		Type:      model.NotifyTenderPublished,
		Reference: reference,
		Title:     "New tender published",
		Message:   "KR/2026/001: Track maintenance is open for bids",
		Link:      "/api/tenders/track-maintenance",
	})
	require.NoError(t, err)
	require.Len(t, sink.delivered, 1)

	var stored model.Notification
	require.NoError(t, db.First(&stored, "recipient_id = ?", recipient).Error)
	require.Equal(t, model.NotifyTenderPublished, stored.Type)
	require.Equal(t, reference, stored.ReferenceID)
	require.Equal(t, "New tender published", stored.Title)
	require.False(t, stored.IsRead)
}

func TestDispatchSuppressesDuplicates(t *testing.T) {
	db := notificationDB(t)
	sink := &recorder{}
	dispatcher := notify.NewDispatcher(sink, false)

	event := notify.Event{
		Recipient: uuid.New(),
		Type:      model.NotifyBidStatusChange,
		Reference: uuid.New(),
		Title:     "Bid shortlisted",
	}
	require.NoError(t, dispatcher.Dispatch(db, event))
	require.NoError(t, dispatcher.Dispatch(db, event))

	var count int64
	db.Model(&model.Notification{}).Count(&count)
	require.EqualValues(t, 1, count)
	require.Len(t, sink.delivered, 1)
}

func TestDispatchDistinctReferencesBothStored(t *testing.T) {
	db := notificationDB(t)
	dispatcher := notify.NewDispatcher(&recorder{}, false)

	recipient := uuid.New()
	first := notify.Event{
		Recipient: recipient,
		Type:      model.NotifyBidStatusChange,
		Reference: uuid.New(),
		Title:     "Bid shortlisted",
	}
	second := notify.Event{
		Recipient: recipient,
		Type:      model.NotifyBidStatusChange,
		Reference: uuid.New(),
		Title:     "Bid awarded",
	}
	require.NoError(t, dispatcher.Dispatch(db, first, second))

	var count int64
	db.Model(&model.Notification{}).Where("recipient_id = ?", recipient).Count(&count)
	require.EqualValues(t, 2, count)
}

func TestDispatchDefaultsToLogDeliverer(t *testing.T) {
	db := notificationDB(t)
	dispatcher := notify.NewDispatcher(nil, false)

	require.NoError(t, dispatcher.Dispatch(db, notify.Event{
		Recipient: uuid.New(),
		Type:      model.NotifyPaymentReleased,
		Reference: uuid.New(),
		Title:     "Payment released",
	}))

	var count int64
	db.Model(&model.Notification{}).Count(&count)
	require.EqualValues(t, 1, count)
}
