// Package lifecycle implements the tender, bid, contract and
// milestone state machines. Every transition runs in a single
// transaction together with the notifications it emits.
package lifecycle

import (
	"errors"

	"tender-service/internal/apperr"
	"tender-service/internal/model"
	"tender-service/internal/notify"
	"tender-service/pkg/config"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service coordinates lifecycle transitions over the entity store.
type Service struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	cfg        *config.Config
}

// NewService creates a lifecycle service. A nil dispatcher falls back
// to a synchronous logging dispatcher.
func NewService(db *gorm.DB, dispatcher *notify.Dispatcher, cfg *config.Config) *Service {
	if dispatcher == nil {
		dispatcher = notify.NewDispatcher(nil, cfg.Notify.Async)
	}
	return &Service{db: db, dispatcher: dispatcher, cfg: cfg}
}

// DB exposes the underlying connection for read-side queries.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// notFoundOr maps gorm's missing-record error to the domain not-found
// error for the named resource.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	return err
}

// conflictOr maps the driver's unique-constraint error to the domain
// conflict error. The pre-insert checks catch duplicates on the common
// path; the index violation surfaces only when two transactions race.
func conflictOr(err error, resource, reason string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(resource, reason)
	}
	return err
}

// statusEventRef derives a stable reference for a status-change event
// so that replaying the same transition dedups while later transitions
// of the same entity still notify.
func statusEventRef(entityID uuid.UUID, status string) uuid.UUID {
	return uuid.NewSHA1(entityID, []byte(status))
}

// RefreshGauges recomputes the status gauges from the store.
func (s *Service) RefreshGauges() {
	counts := map[model.TenderStatus]int64{
		model.TenderStatusDraft:     0,
		model.TenderStatusPublished: 0,
		model.TenderStatusClosed:    0,
		model.TenderStatusAwarded:   0,
		model.TenderStatusCancelled: 0,
	}

	var rows []struct {
		Status model.TenderStatus
		Total  int64
	}
	if err := s.db.Model(&model.Tender{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	for status, total := range counts {
		prometheus.UpdateTendersByStatus(string(status), total)
	}

	var active int64
	if err := s.db.Model(&model.Contract{}).
		Where("status = ?", model.ContractStatusActive).
		Count(&active).Error; err != nil {
		return
	}
	prometheus.UpdateActiveContracts(active)
}
