package lifecycle_test

import (
	"fmt"
	"testing"
	"time"

	"tender-service/internal/lifecycle"
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

// memdb opens a fresh in-memory database with the full schema.
func memdb(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// newService builds a lifecycle service on a fresh in-memory database
// with a synchronous dispatcher, a 48h closing-soon window and a
// shortlist threshold of 70.
func newService(t *testing.T) (*lifecycle.Service, *gorm.DB) {
	t.Helper()
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})

	db := memdb(t)
	cfg := &config.Config{
		Notify:     config.NotifyConfig{ClosingSoonWindow: 48 * time.Hour},
		Evaluation: config.EvaluationConfig{ShortlistThreshold: 70},
	}
	return lifecycle.NewService(db, notify.NewDispatcher(nil, false), cfg), db
}

func hoursFromNow(h int) *time.Time {
	ts := time.Now().Add(time.Duration(h) * time.Hour)
	return &ts
}

func seedOrganization(t *testing.T, db *gorm.DB, name string, verified bool) *model.Organization {
	t.Helper()
	org := &model.Organization{
		Name:               name,
		OrganizationType:   model.OrgTypeGovernment,
		RegistrationNumber: "ORG-" + uuid.NewString(),
		Email:              fmt.Sprintf("%s@example.org", uuid.NewString()[:8]),
		Country:            "Kenya",
		IsVerified:         verified,
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedVendor creates a verified vendor with a linked user account so
// that notifications have a recipient.
func seedVendor(t *testing.T, db *gorm.DB, company string) (*model.Vendor, *model.User) {
	t.Helper()
	user := seedUser(t, db, model.RoleVendor)
	vendor := &model.Vendor{
		UserID:             &user.ID,
		CompanyName:        company,
		BusinessType:       model.BusinessLLC,
		RegistrationNumber: "VND-" + uuid.NewString(),
		Country:            "Kenya",
		IsVerified:         true,
	}
	require.NoError(t, db.Create(vendor).Error)
	require.NoError(t, db.Model(user).Update("vendor_id", vendor.ID).Error)
	return vendor, user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *model.TenderCategory {
	t.Helper()
	category := &model.TenderCategory{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

// draftTender creates a draft tender with valid dates 24h/48h out.
func draftTender(t *testing.T, svc *lifecycle.Service, org *model.Organization, category *model.TenderCategory, number string) *model.Tender {
	t.Helper()
	tender := &model.Tender{
		TenderNumber:       number,
		Title:              "Supply of " + number,
		OrganizationID:     org.ID,
		EstimatedValue:     1_000_000,
		Currency:           "KES",
		SubmissionDeadline: hoursFromNow(24),
		OpeningDate:        hoursFromNow(48),
	}
	if category != nil {
		tender.CategoryID = &category.ID
	}
	require.NoError(t, svc.CreateTender(tender))
	return tender
}

// publishedTender creates and publishes a tender for a verified
// organization.
func publishedTender(t *testing.T, svc *lifecycle.Service, db *gorm.DB, number string) *model.Tender {
	t.Helper()
	org := seedOrganization(t, db, "Org "+number, true)
	category := seedCategory(t, db, "Category "+number)
	tender := draftTender(t, svc, org, category, number)
	published, err := svc.PublishTender(tender.ID)
	require.NoError(t, err)
	return published
}

func submitBid(t *testing.T, svc *lifecycle.Service, tender *model.Tender, vendor *model.Vendor, amount float64) *model.Bid {
	t.Helper()
	bid := &model.Bid{
		TenderID:             tender.ID,
		VendorID:             vendor.ID,
		Amount:               amount,
		Currency:             "KES",
		DeliveryTimelineDays: 90,
	}
	require.NoError(t, svc.SubmitBid(bid))
	return bid
}

// evaluateBid runs a bid through scoring so it can be decided.
func evaluateBid(t *testing.T, svc *lifecycle.Service, db *gorm.DB, tender *model.Tender, bid *model.Bid, technical, financial float64) *model.Evaluation {
	t.Helper()
	evaluator := seedUser(t, db, model.RoleOrganization)
	evaluation, err := svc.StartEvaluation(tender.ID, evaluator.ID, "{}", "{}")
	require.NoError(t, err)
	_, err = svc.ScoreBid(evaluation.ID, bid.ID, &model.BidEvaluation{
		TechnicalScore: technical,
		FinancialScore: financial,
	})
	require.NoError(t, err)
	return evaluation
}

func notificationCount(t *testing.T, db *gorm.DB, recipient uuid.UUID, typ model.NotificationType, ref uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("recipient_id = ? AND notification_type = ? AND reference_id = ?", recipient, typ, ref).
		Count(&count).Error)
	return count
}

func reloadBid(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Bid {
	t.Helper()
	var bid model.Bid
	require.NoError(t, db.First(&bid, "id = ?", id).Error)
	return &bid
}

func reloadTender(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Tender {
	t.Helper()
	var tender model.Tender
	require.NoError(t, db.First(&tender, "id = ?", id).Error)
	return &tender
}
