package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccessSecret = "test-access-secret-key-for-testing-purposes"

func TestNewService(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testAccessSecret, service.accessSecret)
	assert.Equal(t, time.Hour, service.AccessTokenExpiry())
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)
	roles := []string{"operator"}

	token, err := service.GenerateAccessToken("admin", roles)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.NotEqual(t, uuid.Nil, claims.SessionID)
	assert.Equal(t, claims.SessionID.String(), claims.ID)
}

func TestGenerateAccessToken_UniqueSessions(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	first, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)
	second, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	c1, err := service.ValidateAccessToken(first)
	require.NoError(t, err)
	c2, err := service.ValidateAccessToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.SessionID, c2.SessionID)
}

func TestValidateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	require.NoError(t, err)

	// Test invalid token
	_, err = service.ValidateAccessToken("invalid.token.here")
	assert.Error(t, err)

	// Test token with wrong secret
	wrongService := NewService("wrong-secret", time.Hour)
	_, err = wrongService.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	now := time.Now()
	claims := Claims{
		Username:  "admin",
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    "someone-else",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	service := NewService(testAccessSecret, time.Hour)
	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongType(t *testing.T) {
	now := time.Now()
	claims := Claims{
		Username:  "admin",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    Issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	service := NewService(testAccessSecret, time.Hour)
	_, err = service.ValidateAccessToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")
}

func TestExpiredToken(t *testing.T) {
	service := NewService(testAccessSecret, -time.Minute)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, service.IsTokenExpired(token))
}

func TestExtractClaims(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	claims, err := service.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestIsTokenExpired(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)
	assert.False(t, service.IsTokenExpired(token))

	// Test invalid token
	assert.True(t, service.IsTokenExpired("invalid.token.here"))
}

func TestGetTokenExpiry(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	expiry, err := service.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	_, err = service.GetTokenExpiry("invalid.token.here")
	assert.Error(t, err)
}

func TestTokenSigningMethod(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{"operator"})
	require.NoError(t, err)

	parsedToken, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testAccessSecret), nil
	})
	require.NoError(t, err)

	_, ok := parsedToken.Method.(*jwt.SigningMethodHMAC)
	assert.True(t, ok, "Token should use HMAC signing method")
}

func TestConcurrentTokenGeneration(t *testing.T) {
	service := NewService(testAccessSecret, time.Hour)

	done := make(chan bool)
	errors := make(chan error, 50)

	for i := 0; i < 50; i++ {
		go func() {
			defer func() { done <- true }()

			token, err := service.GenerateAccessToken("admin", []string{"operator"})
			if err != nil {
				errors <- err
				return
			}
			if _, err := service.ValidateAccessToken(token); err != nil {
				errors <- err
			}
		}()
	}

	for i := 0; i < 50; i++ {
		<-done
	}

	close(errors)
	assert.Empty(t, errors)
}
