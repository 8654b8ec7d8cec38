package jwtutil

import (
	"errors"
	"time"

	"tender-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtConfig *config.JWTConfig

// ActorClaims extends jwt.RegisteredClaims with the procurement actor
// identity carried by tokens issued by the auth service.
type ActorClaims struct {
	Email          string     `json:"email"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           string     `json:"role,omitempty"`
	VendorID       *uuid.UUID `json:"vendor_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.JWTConfig) {
	jwtConfig = config
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(email string, userID uuid.UUID, role string) (string, error) {
	return generateTokenWithClaims(email, userID, role, nil, nil)
}

// GenerateVendorToken creates a token bound to a vendor profile
func GenerateVendorToken(email string, userID, vendorID uuid.UUID) (string, error) {
	return generateTokenWithClaims(email, userID, "vendor", &vendorID, nil)
}

// GenerateOrganizationToken creates a token bound to a procuring organization
func GenerateOrganizationToken(email string, userID, organizationID uuid.UUID, role string) (string, error) {
	return generateTokenWithClaims(email, userID, role, nil, &organizationID)
}

// generateTokenWithClaims is a helper function that creates a token with the given claims
func generateTokenWithClaims(email string, userID uuid.UUID, role string, vendorID, organizationID *uuid.UUID) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not initialized")
	}

	signingKey := jwtConfig.SigningKey
	expirationHours := jwtConfig.ExpirationHours

	now := time.Now()
	claims := &ActorClaims{
		Email:          email,
		UserID:         userID,
		Role:           role,
		VendorID:       vendorID,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tender-service",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(signingKey))
}

// ValidateToken validates the token and returns the claims
func ValidateToken(tokenString string) (*ActorClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	signingKey := jwtConfig.SigningKey

	token, err := jwt.ParseWithClaims(
		tokenString,
		&ActorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(signingKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ActorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
