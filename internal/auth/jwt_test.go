package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/auth"
)

func newTestService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestService("test-secret-key-for-testing-only", "https://api.aquadose.example", "aquadose-admin")

	token, expiresAt, err := svc.GenerateAccessToken("ops@aquadose.example", auth.RoleAdmin, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@aquadose.example", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "https://api.aquadose.example", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_GenerateAccessToken_Validation(t *testing.T) {
	svc := newTestService("key", "iss", "aud")

	_, _, err := svc.GenerateAccessToken("", auth.RoleAdmin, 0)
	assert.ErrorIs(t, err, auth.ErrInvalidSubject)

	_, _, err = svc.GenerateAccessToken("ops", "root", 0)
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}

func TestJWTService_GenerateAccessToken_CapsTTL(t *testing.T) {
	svc := newTestService("key", "iss", "aud")

	_, expiresAt, err := svc.GenerateAccessToken("ops", auth.RoleViewer, 30*24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.MaxTokenExpiry), expiresAt, 5*time.Second)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newTestService("test-secret-key-for-testing-only", "https://api.aquadose.example", "aquadose-admin")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_TamperedToken(t *testing.T) {
	svc := newTestService("key", "iss", "aud")

	token, _, err := svc.GenerateAccessToken("ops", auth.RoleViewer, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("A", len(parts[2]))

	_, err = svc.ValidateAccessToken(strings.Join(parts, "."))
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	svc1 := newTestService("key-one", "https://api.aquadose.example", "aquadose-admin")
	token, _, err := svc1.GenerateAccessToken("ops", auth.RoleAdmin, 0)
	require.NoError(t, err)

	svc2 := newTestService("key-two", "https://api.aquadose.example", "aquadose-admin")
	_, err = svc2.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	svc1 := newTestService("test-key", "issuer-one", "aquadose-admin")
	token, _, err := svc1.GenerateAccessToken("ops", auth.RoleAdmin, 0)
	require.NoError(t, err)

	svc2 := newTestService("test-key", "issuer-two", "aquadose-admin")
	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_WrongAudience(t *testing.T) {
	svc1 := newTestService("test-key", "https://api.aquadose.example", "audience-one")
	token, _, err := svc1.GenerateAccessToken("ops", auth.RoleAdmin, 0)
	require.NoError(t, err)

	svc2 := newTestService("test-key", "https://api.aquadose.example", "audience-two")
	_, err = svc2.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_Enabled(t *testing.T) {
	assert.True(t, newTestService("key", "iss", "aud").Enabled())
	assert.False(t, newTestService("", "iss", "aud").Enabled())

	var nilSvc *auth.JWTService
	assert.False(t, nilSvc.Enabled())
}

func TestJWTClaims_HasRole(t *testing.T) {
	admin := &auth.JWTClaims{Role: auth.RoleAdmin}
	viewer := &auth.JWTClaims{Role: auth.RoleViewer}

	assert.True(t, admin.HasRole(auth.RoleAdmin))
	assert.True(t, admin.HasRole(auth.RoleViewer))
	assert.True(t, viewer.HasRole(auth.RoleViewer))
	assert.False(t, viewer.HasRole(auth.RoleAdmin))
}
