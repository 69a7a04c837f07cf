package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skovtun/wayplan/pkg/crypto"
)

// Token purposes. Each produces an opaque single-use token persisted on the owning
// row; validity is decided by the stored expiry column, not the signature window.
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
	PurposeInvitation        = "invitation"
)

// Validity windows per purpose. Verification tokens stay redeemable until consumed;
// the signature window only bounds how stale a link in a resent email can look.
const (
	VerificationTokenTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour
	InvitationTTL        = 24 * time.Hour
)

const tokenNonceBytes = 16

// TokenService mints purpose-scoped opaque tokens. It reuses the session signing
// secret for convenience; single-use enforcement happens by clearing the stored copy.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customises TokenService behaviour.
type TokenOption func(*TokenService)

// WithTokenClock injects a custom time source, primarily for testing.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewTokenService constructs a TokenService sharing the session token secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: secret must be provided")
	}

	service := &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

type purposeClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issue mints a fresh opaque token for the given purpose.
func (s *TokenService) Issue(purpose string) (string, error) {
	ttl, err := purposeTTL(purpose)
	if err != nil {
		return "", err
	}

	nonce, err := crypto.GenerateNonce(tokenNonceBytes)
	if err != nil {
		return "", fmt.Errorf("token service: generate nonce: %w", err)
	}

	now := s.now()
	claims := &purposeClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token service: sign token: %w", err)
	}

	return signed, nil
}

func purposeTTL(purpose string) (time.Duration, error) {
	switch purpose {
	case PurposeEmailVerification:
		return VerificationTokenTTL, nil
	case PurposePasswordReset:
		return PasswordResetTTL, nil
	case PurposeInvitation:
		return InvitationTTL, nil
	default:
		return 0, fmt.Errorf("token service: unknown purpose %q", purpose)
	}
}
