package middleware

import (
	"net/http"
	"strings"

	"tender-service/internal/model"
	"tender-service/pkg/jwtutil"
	"tender-service/pkg/logger"
	"tender-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the JWT token and extracts claims
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Extract the token from the Authorization header
		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.RecordAuthError()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.RecordAuthError()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// Store actor information in the context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		log = log.With(
			zap.String("user_id", claims.UserID.String()),
			zap.String("email", claims.Email),
			zap.String("role", claims.Role),
		)

		if claims.VendorID != nil {
			c.Set("vendor_id", *claims.VendorID)
			log = log.With(zap.String("vendor_id", claims.VendorID.String()))
		}
		if claims.OrganizationID != nil {
			c.Set("organization_id", *claims.OrganizationID)
			log = log.With(zap.String("organization_id", claims.OrganizationID.String()))
		}
		c.Set("logger", log)

		// Call the next handler
		return next(c)
	}
}

// RequireRole restricts a route to the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			logger.FromContext(c).Warn("Insufficient role", zap.String("role", role))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
	}
}

// RequireVendorContext ensures the token carries a vendor profile.
func RequireVendorContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("vendor_id").(uuid.UUID); !ok {
			logger.FromContext(c).Warn("Missing vendor context")
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "vendor context required",
				"message": "This resource is available to vendor accounts only",
			})
		}
		return next(c)
	}
}

// RequireOrganizationContext ensures the token carries an organization
// profile.
func RequireOrganizationContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("organization_id").(uuid.UUID); !ok {
			logger.FromContext(c).Warn("Missing organization context")
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "organization context required",
				"message": "This resource is available to organization accounts only",
			})
		}
		return next(c)
	}
}

// RequireAdmin restricts a route to admin users.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(model.RoleAdmin)(next)
}
