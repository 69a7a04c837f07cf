package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/access"
	"github.com/skovtun/wayplan/internal/auth"
	"github.com/skovtun/wayplan/internal/database/testutil"
	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/internal/notify"
	"github.com/skovtun/wayplan/pkg/mail"
)

// stubMailer records outbound messages and optionally fails every send.
type stubMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func newTestNotifier(t *testing.T, mailer *stubMailer) *notify.Notifier {
	t.Helper()
	notifier, err := notify.New(mailer, "http://app.test")
	require.NoError(t, err)
	return notifier
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	return tokens
}

func newTestPolicy(t *testing.T, db *gorm.DB) *access.Policy {
	t.Helper()
	policy, err := access.NewPolicy(db)
	require.NoError(t, err)
	return policy
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash", Name: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTrip(t *testing.T, db *gorm.DB, ownerID, title string) *models.Trip {
	t.Helper()
	trip := &models.Trip{Title: title, OwnerID: ownerID}
	require.NoError(t, db.Create(trip).Error)
	return trip
}

func seedAccess(t *testing.T, db *gorm.DB, tripID, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.TripAccess{
		TripID: tripID,
		UserID: userID,
		Role:   models.RoleCollaborator,
	}).Error)
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t)
}
