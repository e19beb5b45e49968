package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/models"
	"github.com/smarttransit/bus-reservation/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// OperatorRole is the role carried by operator access tokens
const OperatorRole = "operator"

// ErrInvalidCredentials is returned for a wrong username or password
var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginLockedError is returned once too many logins have failed
type LoginLockedError struct {
	Message    string
	RetryAfter time.Time
}

func (e *LoginLockedError) Error() string {
	return e.Message
}

// CredentialVerifier checks operator credentials
type CredentialVerifier interface {
	Verify(username, password string) error
}

// BcryptVerifier checks a single operator account against a bcrypt hash
type BcryptVerifier struct {
	username     string
	passwordHash []byte
}

// NewBcryptVerifier creates a verifier for one operator account
func NewBcryptVerifier(username, passwordHash string) *BcryptVerifier {
	return &BcryptVerifier{username: username, passwordHash: []byte(passwordHash)}
}

// Verify returns ErrInvalidCredentials unless both username and password match
func (v *BcryptVerifier) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password
	passErr := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes an operator password for OPERATOR_PASSWORD_HASH
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// OperatorAuthService logs the operator in and issues access tokens. After
// maxAttempts consecutive failures further attempts are refused until the
// lockout expires.
type OperatorAuthService struct {
	verifier    CredentialVerifier
	jwtService  *jwt.Service
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
	logger      *logrus.Logger

	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
}

// NewOperatorAuthService creates a new operator auth service
func NewOperatorAuthService(
	verifier CredentialVerifier,
	jwtService *jwt.Service,
	maxAttempts int,
	lockout time.Duration,
	now func() time.Time,
	logger *logrus.Logger,
) *OperatorAuthService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if now == nil {
		now = time.Now
	}
	return &OperatorAuthService{
		verifier:    verifier,
		jwtService:  jwtService,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         now,
		logger:      logger,
	}
}

// Login authenticates the operator and returns an access token
func (s *OperatorAuthService) Login(ctx context.Context, username, password string) (*models.OperatorLoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Before(s.lockedUntil) {
		return nil, &LoginLockedError{
			Message:    fmt.Sprintf("Too many failed login attempts. Please try again after %s", s.lockedUntil.Format("15:04:05")),
			RetryAfter: s.lockedUntil,
		}
	}

	if err := s.verifier.Verify(username, password); err != nil {
		s.failures++
		entry := s.logger.WithFields(logrus.Fields{
			"username": username,
			"attempt":  s.failures,
		})
		if s.failures >= s.maxAttempts {
			s.lockedUntil = now.Add(s.lockout)
			s.failures = 0
			entry.WithField("locked_until", s.lockedUntil).Warn("Operator login locked")
		} else {
			entry.Warn("Operator login failed")
		}
		return nil, ErrInvalidCredentials
	}

	s.failures = 0
	s.lockedUntil = time.Time{}

	accessToken, err := s.jwtService.GenerateAccessToken(username, []string{OperatorRole})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.WithField("username", username).Info("Operator logged in")

	return &models.OperatorLoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Username:    username,
	}, nil
}
