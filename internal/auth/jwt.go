package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Operator tokens
//
// Administrative endpoints (calibration profiles and feature flags) are
// protected by short-lived HS256 bearer tokens. Tokens are minted offline
// with the dosecalc CLI using the same signing key as the API and carry the
// operator identity in the subject claim and a role claim.
//
// There are no refresh tokens: an operator mints a new token when the old
// one expires. Tokens cannot be revoked before expiry; rotate the signing
// key to invalidate all outstanding tokens.

// Token policy constants.
const (
	// DefaultTokenExpiry is how long operator tokens are valid when no
	// explicit TTL is requested.
	DefaultTokenExpiry = 1 * time.Hour

	// MaxTokenExpiry caps the TTL a caller may request.
	MaxTokenExpiry = 24 * time.Hour

	// RoleAdmin grants access to calibration and flag management.
	RoleAdmin = "admin"

	// RoleViewer grants read-only access to administrative listings.
	RoleViewer = "viewer"
)

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrInvalidSubject     = errors.New("token subject is required")
	ErrInvalidRole        = errors.New("unknown role")
	ErrInsufficientRole   = errors.New("insufficient role")
)

// JWTClaims represents the claims in operator access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims

	// Role is the operator's role, one of RoleAdmin or RoleViewer.
	Role string `json:"role"`
}

// HasRole reports whether the claims satisfy the required role.
// Admins satisfy every role.
func (c *JWTClaims) HasRole(required string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == required
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign JWTs.
	SigningKey string

	// Issuer is the issuer claim for tokens (e.g., "https://api.aquadose.example").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "aquadose-admin").
	Audience string
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        time.Now,
	}
}

// Enabled reports whether a signing key is configured.
func (s *JWTService) Enabled() bool {
	return s != nil && len(s.signingKey) > 0
}

// GenerateAccessToken creates a new operator token for subject with the
// given role. A zero ttl uses DefaultTokenExpiry.
func (s *JWTService) GenerateAccessToken(subject, role string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrInvalidSubject
	}
	if role != RoleAdmin && role != RoleViewer {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	if ttl > MaxTokenExpiry {
		ttl = MaxTokenExpiry
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
