package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/pkg/crypto"
)

func TestUserServiceRegisterAndVerify(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{}

	svc, err := NewUserService(db, newTestTokens(t), newTestNotifier(t, mailer))
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Traveler@Example.com",
		Password: "SuperSecret1!",
		Name:     "Traveler",
	})
	require.NoError(t, err)
	require.Equal(t, "traveler@example.com", user.Email)
	require.False(t, user.Verified())
	require.NotNil(t, user.EmailVerificationToken)
	require.True(t, crypto.VerifyPassword(user.Password, "SuperSecret1!"))

	// The verification email carries the stored token.
	messages := mailer.messages()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Body, *user.EmailVerificationToken)

	verified, err := svc.VerifyEmail(context.Background(), *user.EmailVerificationToken)
	require.NoError(t, err)
	require.True(t, verified.Verified())
	require.Nil(t, verified.EmailVerificationToken)
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, newTestTokens(t), nil)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "dup@example.com", Password: "SuperSecret1!"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "DUP@example.com", Password: "OtherSecret2!"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserServiceRegisterSurvivesMailFailure(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{err: errors.New("smtp down")}

	svc, err := NewUserService(db, newTestTokens(t), newTestNotifier(t, mailer))
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "kept@example.com", Password: "SuperSecret1!"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUserServiceAuthenticate(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, newTestTokens(t), nil)
	require.NoError(t, err)

	registered, err := svc.Register(context.Background(), RegisterInput{Email: "login@example.com", Password: "SuperSecret1!"})
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "login@example.com", "SuperSecret1!")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	// Unknown email and wrong password must fail identically.
	_, err = svc.Authenticate(context.Background(), "login@example.com", "bad-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "SuperSecret1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServicePasswordResetFlow(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{}
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewUserService(db, newTestTokens(t), newTestNotifier(t, mailer),
		WithUserClock(func() time.Time { return current }))
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "reset@example.com", Password: "OldSecret1!"})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "reset@example.com"))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)

	require.NoError(t, svc.ResetPassword(context.Background(), *stored.PasswordResetToken, "NewSecret2!"))

	// Token is single-use.
	err = svc.ResetPassword(context.Background(), *stored.PasswordResetToken, "AnotherSecret3!")
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = svc.Authenticate(context.Background(), "reset@example.com", "NewSecret2!")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "reset@example.com", "OldSecret1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServiceResetTokenExpires(t *testing.T) {
	db := openServiceTestDB(t)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewUserService(db, newTestTokens(t), nil,
		WithUserClock(func() time.Time { return current }))
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "late@example.com", Password: "OldSecret1!"})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "late@example.com"))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)

	current = current.Add(2 * time.Hour)
	err = svc.ResetPassword(context.Background(), *stored.PasswordResetToken, "NewSecret2!")
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestUserServicePasswordResetUnknownEmailIsSilent(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{}
	svc, err := NewUserService(db, newTestTokens(t), newTestNotifier(t, mailer))
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	require.Empty(t, mailer.messages())
}

func TestUserServicePasswordResetMailFailureKeepsToken(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc, err := NewUserService(db, newTestTokens(t), newTestNotifier(t, mailer))
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "kept@example.com", Password: "OldSecret1!"})
	require.NoError(t, err)

	err = svc.RequestPasswordReset(context.Background(), "kept@example.com")
	require.ErrorIs(t, err, ErrEmailDispatchFailed)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.PasswordResetToken)
}

func TestUserServiceVerifyEmailRejectsBadToken(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, newTestTokens(t), nil)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrVerificationTokenInvalid)

	_, err = svc.VerifyEmail(context.Background(), "")
	require.ErrorIs(t, err, ErrVerificationTokenInvalid)
}

func TestUserServiceFindByEmail(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, newTestTokens(t), nil)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "find@example.com", Password: "SuperSecret1!"})
	require.NoError(t, err)

	user, err := svc.FindByEmail(context.Background(), "FIND@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)

	missing, err := svc.FindByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}
