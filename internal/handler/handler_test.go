package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tender-service/internal/handler"
	"tender-service/internal/lifecycle"
	"tender-service/internal/model"
	"tender-service/internal/notify"
	"tender-service/pkg/config"
	"tender-service/pkg/database"
	"tender-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupHandlers points the handler package at a fresh in-memory
// database and returns the echo instance used to build contexts.
func setupHandlers(t *testing.T) (*echo.Echo, *gorm.DB, *lifecycle.Service) {
	t.Helper()
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))

	database.SetDB(db)
	cfg := &config.Config{
		Notify:     config.NotifyConfig{ClosingSoonWindow: 48 * time.Hour},
		Evaluation: config.EvaluationConfig{ShortlistThreshold: 70},
	}
	svc := lifecycle.NewService(db, notify.NewDispatcher(nil, false), cfg)
	handler.Init(svc)
	return echo.New(), db, svc
}

// request builds an echo context for a handler invocation.
func request(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asOrganization(c echo.Context, orgID, userID uuid.UUID) {
	c.Set("user_id", userID)
	c.Set("organization_id", orgID)
	c.Set("role", model.RoleOrganization)
}

func asVendor(c echo.Context, vendorID, userID uuid.UUID) {
	c.Set("user_id", userID)
	c.Set("vendor_id", vendorID)
	c.Set("role", model.RoleVendor)
}

func seedOrg(t *testing.T, db *gorm.DB, name string) (*model.Organization, *model.User) {
	t.Helper()
	org := &model.Organization{
		Name:               name,
		RegistrationNumber: "ORG-" + uuid.NewString(),
		IsVerified:         true,
	}
	require.NoError(t, db.Create(org).Error)
	user := &model.User{
		Email:          uuid.NewString()[:8] + "@example.org",
		Role:           model.RoleOrganization,
		OrganizationID: &org.ID,
	}
	require.NoError(t, db.Create(user).Error)
	return org, user
}

func seedVendorUser(t *testing.T, db *gorm.DB, company string) (*model.Vendor, *model.User) {
	t.Helper()
	user := &model.User{
		Email: uuid.NewString()[:8] + "@example.com",
		Role:  model.RoleVendor,
	}
	require.NoError(t, db.Create(user).Error)
	vendor := &model.Vendor{
		UserID:             &user.ID,
		CompanyName:        company,
		RegistrationNumber: "VND-" + uuid.NewString(),
		IsVerified:         true,
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor, user
}

// seedPublishedTender creates a published tender owned by the given
// organization.
func seedPublishedTender(t *testing.T, svc *lifecycle.Service, db *gorm.DB, org *model.Organization, number string) *model.Tender {
	t.Helper()
	category := &model.TenderCategory{Name: "Category " + number}
	require.NoError(t, db.Create(category).Error)
	deadline := time.Now().Add(24 * time.Hour)
	opening := time.Now().Add(48 * time.Hour)
	tender := &model.Tender{
		TenderNumber:       number,
		Title:              "Supply of " + number,
		OrganizationID:     org.ID,
		CategoryID:         &category.ID,
		EstimatedValue:     1_000_000,
		SubmissionDeadline: &deadline,
		OpeningDate:        &opening,
	}
	require.NoError(t, svc.CreateTender(tender))
	published, err := svc.PublishTender(tender.ID)
	require.NoError(t, err)
	return published
}

func TestCreateTenderHandler(t *testing.T) {
	e, db, _ := setupHandlers(t)
	org, user := seedOrg(t, db, "Ministry of Transport")

	body := `{"tender_number":"MOT/2026/001","title":"Bus shelters","estimated_value":500000}`
	c, rec := request(e, http.MethodPost, "/api/tenders", body)
	asOrganization(c, org.ID, user.ID)
	require.NoError(t, handler.CreateTender(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "MOT/2026/001")

	var created model.Tender
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, model.TenderStatusDraft, created.Status)
	require.Equal(t, org.ID, created.OrganizationID)

	c, rec = request(e, http.MethodPost, "/api/tenders", body)
	asOrganization(c, org.ID, user.ID)
	require.NoError(t, handler.CreateTender(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTenderHandlerRequiresOrganization(t *testing.T) {
	e, _, _ := setupHandlers(t)

	body := `{"tender_number":"X/2026/001","title":"No context","estimated_value":100}`
	c, rec := request(e, http.MethodPost, "/api/tenders", body)
	require.NoError(t, handler.CreateTender(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateTenderHandlerValidation(t *testing.T) {
	e, db, _ := setupHandlers(t)
	org, user := seedOrg(t, db, "Ministry of Culture")

	body := `{"tender_number":"MC/2026/001","title":"Unfunded"}`
	c, rec := request(e, http.MethodPost, "/api/tenders", body)
	asOrganization(c, org.ID, user.ID)
	require.NoError(t, handler.CreateTender(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "estimated_value")
}

func TestGetTenderHandlerHidesDrafts(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, user := seedOrg(t, db, "County of Mombasa")
	tender := &model.Tender{
		TenderNumber:   "CM/2026/001",
		Title:          "Beach cleanup",
		OrganizationID: org.ID,
		EstimatedValue: 100_000,
	}
	require.NoError(t, svc.CreateTender(tender))

	c, rec := request(e, http.MethodGet, "/api/tenders/"+tender.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	require.NoError(t, handler.GetTender(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = request(e, http.MethodGet, "/api/tenders/"+tender.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asOrganization(c, org.ID, user.ID)
	require.NoError(t, handler.GetTender(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "CM/2026/001")
}

func TestGetTenderHandlerBySlugCountsViews(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, _ := seedOrg(t, db, "Kenya Wildlife")
	tender := seedPublishedTender(t, svc, db, org, "KW/2026/001")

	c, rec := request(e, http.MethodGet, "/api/tenders/"+tender.Slug, "")
	c.SetParamNames("id")
	c.SetParamValues(tender.Slug)
	require.NoError(t, handler.GetTender(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.Tender
	require.NoError(t, db.First(&reloaded, "id = ?", tender.ID).Error)
	require.Equal(t, 1, reloaded.ViewsCount)
}

func TestListTendersExcludesDraftsAndPaginates(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, _ := seedOrg(t, db, "Ministry of Energy")
	seedPublishedTender(t, svc, db, org, "ME/2026/001")
	seedPublishedTender(t, svc, db, org, "ME/2026/002")
	draft := &model.Tender{
		TenderNumber:   "ME/2026/003",
		Title:          "Hidden draft",
		OrganizationID: org.ID,
		EstimatedValue: 100,
	}
	require.NoError(t, svc.CreateTender(draft))

	c, rec := request(e, http.MethodGet, "/api/tenders?limit=1&page=1", "")
	require.NoError(t, handler.ListTenders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tenders    []model.Tender `json:"tenders"`
		Pagination struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tenders, 1)
	require.EqualValues(t, 2, resp.Pagination.Total)
	require.Equal(t, 2, resp.Pagination.TotalPages)
	require.NotContains(t, rec.Body.String(), "ME/2026/003")
}

func TestListTendersStatusFilter(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, _ := seedOrg(t, db, "Ministry of Mining")
	open := seedPublishedTender(t, svc, db, org, "MM/2026/001")
	closed := seedPublishedTender(t, svc, db, org, "MM/2026/002")
	_, err := svc.CloseTender(closed.ID)
	require.NoError(t, err)

	c, rec := request(e, http.MethodGet, "/api/tenders?status=closed", "")
	require.NoError(t, handler.ListTenders(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "MM/2026/002")
	require.NotContains(t, rec.Body.String(), open.TenderNumber)
}

func TestPublishTenderHandlerOwnership(t *testing.T) {
	e, db, svc := setupHandlers(t)
	owner, ownerUser := seedOrg(t, db, "Owner Agency")
	intruder, intruderUser := seedOrg(t, db, "Intruder Agency")
	category := &model.TenderCategory{Name: "Fencing"}
	require.NoError(t, db.Create(category).Error)
	deadline := time.Now().Add(24 * time.Hour)
	opening := time.Now().Add(48 * time.Hour)
	tender := &model.Tender{
		TenderNumber:       "OA/2026/001",
		Title:              "Perimeter fencing",
		OrganizationID:     owner.ID,
		CategoryID:         &category.ID,
		EstimatedValue:     300_000,
		SubmissionDeadline: &deadline,
		OpeningDate:        &opening,
	}
	require.NoError(t, svc.CreateTender(tender))

	c, rec := request(e, http.MethodPost, "/api/tenders/"+tender.ID.String()+"/publish", "")
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asOrganization(c, intruder.ID, intruderUser.ID)
	require.NoError(t, handler.PublishTender(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = request(e, http.MethodPost, "/api/tenders/"+tender.ID.String()+"/publish", "")
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asOrganization(c, owner.ID, ownerUser.ID)
	require.NoError(t, handler.PublishTender(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"published"`)
}

func TestCancelTenderHandlerStateConflict(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, user := seedOrg(t, db, "Ministry of Sports")
	tender := seedPublishedTender(t, svc, db, org, "MS/2026/001")

	body := `{"reason":"stadium project shelved"}`
	c, rec := request(e, http.MethodPost, "/api/tenders/"+tender.ID.String()+"/cancel", body)
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asOrganization(c, org.ID, user.ID)
	require.NoError(t, handler.CancelTender(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "cannot transition")
}

func TestSubmitBidHandler(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, _ := seedOrg(t, db, "Kenya Forest Service")
	tender := seedPublishedTender(t, svc, db, org, "KFS/2026/001")
	vendor, vendorUser := seedVendorUser(t, db, "Tree Movers Ltd")

	body := `{"bid_amount":450000,"delivery_timeline_days":60}`
	c, rec := request(e, http.MethodPost, "/api/tenders/"+tender.ID.String()+"/bids", body)
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asVendor(c, vendor.ID, vendorUser.ID)
	require.NoError(t, handler.SubmitBid(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "BID-KFS/2026/001-001")

	c, rec = request(e, http.MethodPost, "/api/tenders/"+tender.ID.String()+"/bids", body)
	c.SetParamNames("id")
	c.SetParamValues(tender.ID.String())
	asVendor(c, vendor.ID, vendorUser.ID)
	require.NoError(t, handler.SubmitBid(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitBidHandlerParamChecks(t *testing.T) {
	e, db, _ := setupHandlers(t)
	vendor, vendorUser := seedVendorUser(t, db, "Param Checkers Ltd")

	c, rec := request(e, http.MethodPost, "/api/tenders/not-a-uuid/bids", `{"bid_amount":100}`)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	asVendor(c, vendor.ID, vendorUser.ID)
	require.NoError(t, handler.SubmitBid(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	missing := uuid.New()
	c, rec = request(e, http.MethodPost, "/api/tenders/"+missing.String()+"/bids", `{"bid_amount":100}`)
	c.SetParamNames("id")
	c.SetParamValues(missing.String())
	asVendor(c, vendor.ID, vendorUser.ID)
	require.NoError(t, handler.SubmitBid(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandlers(t *testing.T) {
	e, db, _ := setupHandlers(t)
	user := &model.User{Email: "reader@example.com", Role: model.RoleVendor}
	require.NoError(t, db.Create(user).Error)
	stranger := &model.User{Email: "stranger@example.com", Role: model.RoleVendor}
	require.NoError(t, db.Create(stranger).Error)

	notifications := []model.Notification{
		{RecipientID: user.ID, Type: model.NotifyTenderPublished, ReferenceID: uuid.New(), Title: "First"},
		{RecipientID: user.ID, Type: model.NotifyBidStatusChange, ReferenceID: uuid.New(), Title: "Second"},
		{RecipientID: stranger.ID, Type: model.NotifyTenderPublished, ReferenceID: uuid.New(), Title: "Not yours"},
	}
	for i := range notifications {
		require.NoError(t, db.Create(&notifications[i]).Error)
	}

	c, rec := request(e, http.MethodGet, "/api/notifications", "")
	c.Set("user_id", user.ID)
	require.NoError(t, handler.ListNotifications(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   int64                `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Notifications, 2)
	require.EqualValues(t, 2, listed.UnreadCount)
	require.NotContains(t, rec.Body.String(), "Not yours")

	c, rec = request(e, http.MethodPost, "/api/notifications/"+notifications[0].ID.String()+"/read", "")
	c.SetParamNames("id")
	c.SetParamValues(notifications[0].ID.String())
	c.Set("user_id", user.ID)
	require.NoError(t, handler.MarkNotificationRead(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"is_read":true`)

	c, rec = request(e, http.MethodPost, "/api/notifications/"+notifications[2].ID.String()+"/read", "")
	c.SetParamNames("id")
	c.SetParamValues(notifications[2].ID.String())
	c.Set("user_id", user.ID)
	require.NoError(t, handler.MarkNotificationRead(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = request(e, http.MethodPost, "/api/notifications/read", "")
	c.Set("user_id", user.ID)
	require.NoError(t, handler.MarkAllNotificationsRead(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"marked_read":1`)
}

func TestWithdrawBidHandler(t *testing.T) {
	e, db, svc := setupHandlers(t)
	org, _ := seedOrg(t, db, "Kenya Pipeline")
	tender := seedPublishedTender(t, svc, db, org, "KPC/2026/001")
	vendor, vendorUser := seedVendorUser(t, db, "Valve Experts Ltd")

	bid := &model.Bid{TenderID: tender.ID, VendorID: vendor.ID, Amount: 250_000}
	require.NoError(t, svc.SubmitBid(bid))

	c, rec := request(e, http.MethodPost, "/api/bids/"+bid.ID.String()+"/withdraw", "")
	c.SetParamNames("id")
	c.SetParamValues(bid.ID.String())
	asVendor(c, vendor.ID, vendorUser.ID)
	require.NoError(t, handler.WithdrawBid(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"withdrawn"`)
}
