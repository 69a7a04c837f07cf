package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/models"
)

func newInvitationService(t *testing.T, db *gorm.DB, mailer *stubMailer, opts ...InvitationOption) *InvitationService {
	t.Helper()
	svc, err := NewInvitationService(db, newTestPolicy(t, db), newTestTokens(t), newTestNotifier(t, mailer), opts...)
	require.NoError(t, err)
	return svc
}

func TestInvitationCreateAndAccept(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{}
	svc := newInvitationService(t, db, mailer)

	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "Invitee@Example.com")
	require.NoError(t, err)
	require.Equal(t, "invitee@example.com", invitation.Email)
	require.Equal(t, models.InvitationPending, invitation.Status)
	require.NotEmpty(t, invitation.Token)

	messages := mailer.messages()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Body, "Lisbon")

	result, err := svc.Accept(context.Background(), invitation.Token, invitee)
	require.NoError(t, err)
	require.False(t, result.AlreadyMember)
	require.Equal(t, trip.ID, result.Trip.ID)
	require.Equal(t, models.InvitationAccepted, result.Invitation.Status)
	require.NotNil(t, result.Invitation.ReceiverID)
	require.Equal(t, invitee.ID, *result.Invitation.ReceiverID)

	var grant models.TripAccess
	require.NoError(t, db.First(&grant, "trip_id = ? AND user_id = ?", trip.ID, invitee.ID).Error)
	require.Equal(t, models.RoleCollaborator, grant.Role)
}

func TestInvitationCreateGuards(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newInvitationService(t, db, &stubMailer{})

	owner := seedUser(t, db, "owner@example.com")
	friend := seedUser(t, db, "friend@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")
	seedAccess(t, db, trip.ID, friend.ID)

	// Only the owner can invite.
	_, err := svc.Create(context.Background(), trip.ID, friend.ID, "third@example.com")
	require.ErrorIs(t, err, ErrNotTripOwner)

	// Self-invites are rejected.
	_, err = svc.Create(context.Background(), trip.ID, owner.ID, "OWNER@example.com")
	require.ErrorIs(t, err, ErrSelfInvite)

	// Existing collaborators cannot be re-invited.
	_, err = svc.Create(context.Background(), trip.ID, owner.ID, "friend@example.com")
	require.ErrorIs(t, err, ErrAlreadyCollaborator)

	// A second pending invitation for the same email is a conflict.
	_, err = svc.Create(context.Background(), trip.ID, owner.ID, "new@example.com")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), trip.ID, owner.ID, "new@example.com")
	require.ErrorIs(t, err, ErrInviteAlreadyPending)

	// Missing trip is indistinguishable from inaccessible.
	_, err = svc.Create(context.Background(), "missing-trip", owner.ID, "x@example.com")
	require.ErrorIs(t, err, ErrTripNotFound)
}

func TestInvitationCreateRollsBackOnMailFailure(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc := newInvitationService(t, db, mailer)

	owner := seedUser(t, db, "owner@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	_, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.ErrorIs(t, err, ErrEmailDispatchFailed)

	var count int64
	require.NoError(t, db.Model(&models.Invitation{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestInvitationAcceptRequiresLogin(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newInvitationService(t, db, &stubMailer{})

	owner := seedUser(t, db, "owner@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), invitation.Token, nil)
	require.ErrorIs(t, err, ErrLoginRequired)

	// The invitation stays pending so the caller can retry after signing in.
	var stored models.Invitation
	require.NoError(t, db.First(&stored, "id = ?", invitation.ID).Error)
	require.Equal(t, models.InvitationPending, stored.Status)
}

func TestInvitationAcceptRejectsEmailMismatch(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newInvitationService(t, db, &stubMailer{})

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), invitation.Token, other)
	require.ErrorIs(t, err, ErrInviteEmailMismatch)
}

func TestInvitationAcceptIsIdempotent(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newInvitationService(t, db, &stubMailer{})

	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.NoError(t, err)

	first, err := svc.Accept(context.Background(), invitation.Token, invitee)
	require.NoError(t, err)
	require.False(t, first.AlreadyMember)

	// A second click on the same link finds the invitation resolved.
	_, err = svc.Accept(context.Background(), invitation.Token, invitee)
	require.ErrorIs(t, err, ErrInviteNotFound)

	// A fresh invitation to someone who already holds access resolves without a
	// duplicate grant.
	second := models.Invitation{
		TripID:    trip.ID,
		SenderID:  owner.ID,
		Email:     "invitee@example.com",
		Token:     "second-token",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&second).Error)

	result, err := svc.Accept(context.Background(), second.Token, invitee)
	require.NoError(t, err)
	require.True(t, result.AlreadyMember)

	var grants int64
	require.NoError(t, db.Model(&models.TripAccess{}).Where("trip_id = ? AND user_id = ?", trip.ID, invitee.ID).Count(&grants).Error)
	require.EqualValues(t, 1, grants)
}

func TestInvitationAcceptExpiredEqualsMissing(t *testing.T) {
	db := openServiceTestDB(t)
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newInvitationService(t, db, &stubMailer{}, WithInvitationClock(func() time.Time { return current }))

	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)
	_, err = svc.Accept(context.Background(), invitation.Token, invitee)
	require.ErrorIs(t, err, ErrInviteNotFound)

	_, err = svc.Accept(context.Background(), "unknown-token", invitee)
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInvitationRevoke(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newInvitationService(t, db, &stubMailer{})

	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")
	outsider := seedUser(t, db, "outsider@example.com")
	trip := seedTrip(t, db, owner.ID, "Lisbon")

	invitation, err := svc.Create(context.Background(), trip.ID, owner.ID, "invitee@example.com")
	require.NoError(t, err)

	// Only the trip owner may revoke.
	_, err = svc.Revoke(context.Background(), invitation.ID, outsider.ID)
	require.ErrorIs(t, err, ErrNotTripOwner)

	revoked, err := svc.Revoke(context.Background(), invitation.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationRevoked, revoked.Status)

	// Revoking again conflicts; the token no longer redeems.
	_, err = svc.Revoke(context.Background(), invitation.ID, owner.ID)
	require.ErrorIs(t, err, ErrInviteNotPending)
	_, err = svc.Accept(context.Background(), invitation.Token, invitee)
	require.ErrorIs(t, err, ErrInviteNotFound)

	_, err = svc.Revoke(context.Background(), "missing-id", owner.ID)
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInvitationCollaborationScenario(t *testing.T) {
	db := openServiceTestDB(t)
	invites := newInvitationService(t, db, &stubMailer{})
	trips, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)
	places, err := NewPlaceService(db, newTestPolicy(t, db))
	require.NoError(t, err)

	owner := seedUser(t, db, "owner@example.com")
	friend := seedUser(t, db, "friend@example.com")

	trip, err := trips.Create(context.Background(), owner.ID, CreateTripInput{Title: "Porto"})
	require.NoError(t, err)

	invitation, err := invites.Create(context.Background(), trip.ID, owner.ID, "friend@example.com")
	require.NoError(t, err)

	_, err = invites.Accept(context.Background(), invitation.Token, friend)
	require.NoError(t, err)

	// The collaborator can see the trip and add places but not administer it.
	_, decision, err := trips.Get(context.Background(), trip.ID, friend.ID)
	require.NoError(t, err)
	require.False(t, decision.IsOwner)
	require.Equal(t, models.RoleCollaborator, decision.Role)

	_, err = places.Create(context.Background(), trip.ID, friend.ID, CreatePlaceInput{LocationName: "Ribeira", DayNumber: 1})
	require.NoError(t, err)

	require.ErrorIs(t, trips.Delete(context.Background(), trip.ID, friend.ID), ErrNotTripOwner)
	_, err = invites.Create(context.Background(), trip.ID, friend.ID, "third@example.com")
	require.ErrorIs(t, err, ErrNotTripOwner)
}
