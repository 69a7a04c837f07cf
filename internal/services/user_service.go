package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/auth"
	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/internal/notify"
	"github.com/skovtun/wayplan/pkg/crypto"
	"github.com/skovtun/wayplan/pkg/logger"
)

var (
	// ErrEmailTaken indicates a registration attempt with an already used email.
	ErrEmailTaken = errors.New("user service: email already registered")
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user service: user not found")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("user service: invalid credentials")
	// ErrResetTokenInvalid covers unknown, consumed, and expired reset tokens alike.
	ErrResetTokenInvalid = errors.New("user service: invalid or expired reset token")
	// ErrVerificationTokenInvalid covers unknown and already consumed verification tokens.
	ErrVerificationTokenInvalid = errors.New("user service: invalid verification token")
	// ErrEmailDispatchFailed indicates the notifier could not deliver a required email.
	ErrEmailDispatchFailed = errors.New("user service: email dispatch failed")
)

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithUserClock injects a custom time source, primarily for testing.
func WithUserClock(clock func() time.Time) UserOption {
	return func(s *UserService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// UserService manages registration, credential checks, and the verification and
// password reset token lifecycles.
type UserService struct {
	db       *gorm.DB
	tokens   *auth.TokenService
	notifier *notify.Notifier
	now      func() time.Time
	log      *zap.Logger
}

// NewUserService constructs a UserService with the provided dependencies.
// The notifier may be nil, in which case no emails are attempted.
func NewUserService(db *gorm.DB, tokens *auth.TokenService, notifier *notify.Notifier, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("user service: token service is required")
	}

	service := &UserService{
		db:       db,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithModule("users"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// RegisterInput captures the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates an unverified account and dispatches the verification email.
// A mail failure does not undo the registration: losing an account over a transient
// SMTP problem is worse than asking the user to re-request verification.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensuredContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, errors.New("user service: email is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	verificationToken, err := s.tokens.Issue(auth.PurposeEmailVerification)
	if err != nil {
		return nil, fmt.Errorf("user service: issue verification token: %w", err)
	}

	user := models.User{
		Email:                  email,
		Password:               hashed,
		Name:                   strings.TrimSpace(input.Name),
		EmailVerificationToken: &verificationToken,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendVerification(ctx, user.Email, verificationToken); err != nil {
			s.log.Warn("verification email failed; registration kept",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return &user, nil
}

// Authenticate verifies the email/password pair. Unknown email and wrong password
// fail identically so the response does not leak which accounts exist.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetByID loads a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: find user: %w", err)
	}

	return &user, nil
}

// FindByEmail loads a user by email, returning nil without error when absent.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("user service: find user: %w", err)
	}

	return &user, nil
}

// RequestPasswordReset stores a reset token for the account and emails the link.
// Unknown emails succeed silently; the HTTP response is identical either way.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx = ensuredContext(ctx)

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := s.tokens.Issue(auth.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("user service: issue reset token: %w", err)
	}

	// Stamp the deadline from the service clock; ResetPassword compares against
	// the same clock, so the two stay coherent under an injected time source.
	expires := s.now().Add(auth.PasswordResetTTL)

	updates := map[string]any{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("user service: store reset token: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
			return fmt.Errorf("%w: %v", ErrEmailDispatchFailed, err)
		}
	}

	return nil
}

// ResetPassword consumes an unexpired reset token and stores the new password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx = ensuredContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("password_reset_token = ? AND password_reset_expires > ?", token, s.now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("user service: find reset token: %w", err)
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	updates := map[string]any{
		"password":               hashed,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}

	return nil
}

// VerifyEmail consumes a verification token exactly once and marks the account verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrVerificationTokenInvalid
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email_verification_token = ? AND email_verified_at IS NULL", token).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationTokenInvalid
		}
		return nil, fmt.Errorf("user service: find verification token: %w", err)
	}

	now := s.now()
	updates := map[string]any{
		"email_verified_at":        now,
		"email_verification_token": nil,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: mark verified: %w", err)
	}

	user.EmailVerifiedAt = &now
	user.EmailVerificationToken = nil
	return &user, nil
}
