package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smarttransit/bus-reservation/pkg/jwt"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupOperatorAuth(t *testing.T) (*OperatorAuthService, *jwt.Service, *clock) {
	t.Helper()
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	jwtService := jwt.NewService("test-access-secret-key-123456789", time.Hour)
	clk := &clock{t: time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)}
	service := NewOperatorAuthService(
		NewBcryptVerifier("admin", hash),
		jwtService,
		3,
		5*time.Minute,
		clk.Now,
		quietLogger(),
	)
	return service, jwtService, clk
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	verifier := NewBcryptVerifier("admin", hash)

	assert.NoError(t, verifier.Verify("admin", "s3cret"))
	assert.ErrorIs(t, verifier.Verify("admin", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, verifier.Verify("root", "s3cret"), ErrInvalidCredentials)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestOperatorLogin_Success(t *testing.T) {
	service, jwtService, _ := setupOperatorAuth(t)

	resp, err := service.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "admin", resp.Username)

	claims, err := jwtService.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{OperatorRole}, claims.Roles)
}

func TestOperatorLogin_WrongPassword(t *testing.T) {
	service, _, _ := setupOperatorAuth(t)

	resp, err := service.Login(context.Background(), "admin", "nope")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOperatorLogin_LocksAfterMaxAttempts(t *testing.T) {
	service, _, clk := setupOperatorAuth(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Login(ctx, "admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password is refused while locked
	_, err := service.Login(ctx, "admin", "s3cret")
	var locked *LoginLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, clk.Now().Add(5*time.Minute), locked.RetryAfter)

	clk.Advance(5 * time.Minute)
	resp, err := service.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestOperatorLogin_SuccessResetsFailures(t *testing.T) {
	service, _, _ := setupOperatorAuth(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.Login(ctx, "admin", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := service.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := service.Login(ctx, "admin", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = service.Login(ctx, "admin", "s3cret")
	assert.NoError(t, err)
}
