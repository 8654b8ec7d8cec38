package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tender-service/internal/middleware"
	"tender-service/internal/model"
	"tender-service/pkg/config"
	"tender-service/pkg/jwtutil"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *echo.Echo {
	t.Helper()
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	return echo.New()
}

// invoke runs the handler chain against a GET request with the given
// Authorization header.
func invoke(e *echo.Echo, header string, handler echo.HandlerFunc, chain ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := handler
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	e := setup(t)
	rec := invoke(e, "", okHandler, middleware.AuthMiddleware)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "authentication required")
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	e := setup(t)
	rec := invoke(e, "Bearer not-a-token", okHandler, middleware.AuthMiddleware)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid token")
}

func TestAuthMiddlewareSetsActorContext(t *testing.T) {
	e := setup(t)
	userID := uuid.New()
	vendorID := uuid.New()
	token, err := jwtutil.GenerateVendorToken("vendor@example.com", userID, vendorID)
	require.NoError(t, err)

	var gotUser, gotVendor uuid.UUID
	var gotRole string
	probe := func(c echo.Context) error {
		gotUser, _ = c.Get("user_id").(uuid.UUID)
		gotVendor, _ = c.Get("vendor_id").(uuid.UUID)
		gotRole, _ = c.Get("role").(string)
		return c.NoContent(http.StatusOK)
	}

	rec := invoke(e, "Bearer "+token, probe, middleware.AuthMiddleware)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, gotUser)
	require.Equal(t, vendorID, gotVendor)
	require.Equal(t, model.RoleVendor, gotRole)
}

func TestRequireVendorContext(t *testing.T) {
	e := setup(t)
	userID := uuid.New()

	plain, err := jwtutil.GenerateToken("user@example.com", userID, model.RoleVendor)
	require.NoError(t, err)
	rec := invoke(e, "Bearer "+plain, okHandler, middleware.AuthMiddleware, middleware.RequireVendorContext)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "vendor context required")

	vendor, err := jwtutil.GenerateVendorToken("vendor@example.com", userID, uuid.New())
	require.NoError(t, err)
	rec = invoke(e, "Bearer "+vendor, okHandler, middleware.AuthMiddleware, middleware.RequireVendorContext)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOrganizationContext(t *testing.T) {
	e := setup(t)
	userID := uuid.New()

	vendor, err := jwtutil.GenerateVendorToken("vendor@example.com", userID, uuid.New())
	require.NoError(t, err)
	rec := invoke(e, "Bearer "+vendor, okHandler, middleware.AuthMiddleware, middleware.RequireOrganizationContext)
	require.Equal(t, http.StatusForbidden, rec.Code)

	org, err := jwtutil.GenerateOrganizationToken("buyer@example.com", userID, uuid.New(), model.RoleOrganization)
	require.NoError(t, err)
	rec = invoke(e, "Bearer "+org, okHandler, middleware.AuthMiddleware, middleware.RequireOrganizationContext)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	e := setup(t)
	userID := uuid.New()

	vendor, err := jwtutil.GenerateToken("vendor@example.com", userID, model.RoleVendor)
	require.NoError(t, err)
	rec := invoke(e, "Bearer "+vendor, okHandler, middleware.AuthMiddleware, middleware.RequireAdmin)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "insufficient permissions")

	admin, err := jwtutil.GenerateToken("admin@example.com", userID, model.RoleAdmin)
	require.NoError(t, err)
	rec = invoke(e, "Bearer "+admin, okHandler, middleware.AuthMiddleware, middleware.RequireAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	e := setup(t)
	rec := invoke(e, "", okHandler, middleware.RequestIDMiddleware)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
