// Package notify persists and delivers user notifications. Dispatch
// is idempotent per (recipient, type, reference): replaying an event
// never produces a second notification row.
package notify

import (
	"tender-service/internal/model"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event describes one notification to dispatch.
type Event struct {
	Recipient uuid.UUID
	Type      model.NotificationType
	Reference uuid.UUID
	Title     string
	Message   string
	Link      string
}

// Deliverer fans a stored notification out to external channels.
// Channel transports (email, SMS) are external collaborators, so the
// default implementation only logs.
type Deliverer interface {
	Deliver(n model.Notification)
}

// LogDeliverer logs delivered notifications.
type LogDeliverer struct{}

// Deliver logs the notification.
func (LogDeliverer) Deliver(n model.Notification) {
	logger.GetLogger().Info("notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
	)
}

// Dispatcher writes notification rows and hands them to a Deliverer.
type Dispatcher struct {
	deliverer Deliverer
	async     bool
}

// NewDispatcher creates a dispatcher. A nil deliverer falls back to
// the logging deliverer.
func NewDispatcher(deliverer Deliverer, async bool) *Dispatcher {
	if deliverer == nil {
		deliverer = LogDeliverer{}
	}
	return &Dispatcher{deliverer: deliverer, async: async}
}

// Dispatch stores the events on the given connection, suppressing
// duplicates, and delivers the newly created rows. Passing the
// transaction of the triggering operation keeps the notification
// writes atomic with it.
func (d *Dispatcher) Dispatch(tx *gorm.DB, events ...Event) error {
	for _, ev := range events {
		n := model.Notification{
			RecipientID: ev.Recipient,
			Type:        ev.Type,
			ReferenceID: ev.Reference,
			Title:       ev.Title,
			Message:     ev.Message,
			Link:        ev.Link,
		}

		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "recipient_id"},
				{Name: "notification_type"},
				{Name: "reference_id"},
			},
			DoNothing: true,
		}).Create(&n)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			prometheus.RecordNotificationDuplicate()
			continue
		}

		prometheus.RecordNotificationDispatched(string(ev.Type))

		if d.async {
			go d.deliverer.Deliver(n)
		} else {
			d.deliverer.Deliver(n)
		}
	}
	return nil
}
