package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skovtun/wayplan/internal/models"
)

func TestTripServiceCreateAndGet(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)
	owner := seedUser(t, db, "owner@example.com")

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	trip, err := svc.Create(context.Background(), owner.ID, CreateTripInput{
		Title:       "  Lisbon Week  ",
		Description: "Summer trip",
		StartDate:   &start,
		EndDate:     &end,
	})
	require.NoError(t, err)
	require.Equal(t, "Lisbon Week", trip.Title)
	require.Equal(t, owner.ID, trip.OwnerID)

	loaded, decision, err := svc.Get(context.Background(), trip.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, decision.IsOwner)
	require.Equal(t, "Lisbon Week", loaded.Title)
	require.NotNil(t, loaded.Owner)
}

func TestTripServiceCreateValidation(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)
	owner := seedUser(t, db, "owner@example.com")

	_, err = svc.Create(context.Background(), owner.ID, CreateTripInput{Title: "   "})
	require.ErrorIs(t, err, ErrTitleRequired)

	start := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -3)
	_, err = svc.Create(context.Background(), owner.ID, CreateTripInput{
		Title:     "Backwards",
		StartDate: &start,
		EndDate:   &end,
	})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestTripServiceListScopesToMembership(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)

	owner := seedUser(t, db, "owner@example.com")
	friend := seedUser(t, db, "friend@example.com")
	stranger := seedUser(t, db, "stranger@example.com")

	mine := seedTrip(t, db, owner.ID, "Owner trip")
	shared := seedTrip(t, db, friend.ID, "Shared trip")
	seedAccess(t, db, shared.ID, owner.ID)
	seedTrip(t, db, stranger.ID, "Foreign trip")

	trips, err := svc.List(context.Background(), owner.ID, ListTripsOptions{})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	ids := []string{trips[0].ID, trips[1].ID}
	require.Contains(t, ids, mine.ID)
	require.Contains(t, ids, shared.ID)
}

func TestTripServiceListSearchAndSort(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)
	owner := seedUser(t, db, "owner@example.com")

	seedTrip(t, db, owner.ID, "Alps hiking")
	seedTrip(t, db, owner.ID, "Beach holiday")
	seedTrip(t, db, owner.ID, "City break")

	found, err := svc.List(context.Background(), owner.ID, ListTripsOptions{Search: "ALPS"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Alps hiking", found[0].Title)

	sorted, err := svc.List(context.Background(), owner.ID, ListTripsOptions{SortBy: SortByTitle, SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	require.Equal(t, "Alps hiking", sorted[0].Title)
	require.Equal(t, "City break", sorted[2].Title)

	_, err = svc.List(context.Background(), owner.ID, ListTripsOptions{SortBy: "owner_id; DROP TABLE trips"})
	require.Error(t, err)
}

func TestTripServiceGetDeniesStranger(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)

	owner := seedUser(t, db, "owner@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	trip := seedTrip(t, db, owner.ID, "Private")

	// Inaccessible and missing trips are indistinguishable.
	_, _, err = svc.Get(context.Background(), trip.ID, stranger.ID)
	require.ErrorIs(t, err, ErrTripNotFound)
	_, _, err = svc.Get(context.Background(), "missing-id", stranger.ID)
	require.ErrorIs(t, err, ErrTripNotFound)
}

func TestTripServiceUpdateOwnerOnly(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)

	owner := seedUser(t, db, "owner@example.com")
	friend := seedUser(t, db, "friend@example.com")
	trip := seedTrip(t, db, owner.ID, "Original")
	seedAccess(t, db, trip.ID, friend.ID)

	title := "Renamed"
	_, err = svc.Update(context.Background(), trip.ID, friend.ID, UpdateTripInput{Title: &title})
	require.ErrorIs(t, err, ErrNotTripOwner)

	updated, err := svc.Update(context.Background(), trip.ID, owner.ID, UpdateTripInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
}

func TestTripServiceUpdateValidatesMergedDates(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)
	owner := seedUser(t, db, "owner@example.com")

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	trip, err := svc.Create(context.Background(), owner.ID, CreateTripInput{
		Title:     "Dated",
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	// Moving the start past the stored end must fail.
	lateStart := end.AddDate(0, 0, 1)
	_, err = svc.Update(context.Background(), trip.ID, owner.ID, UpdateTripInput{StartDate: &lateStart})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	// Clearing both dates is always valid.
	cleared, err := svc.Update(context.Background(), trip.ID, owner.ID, UpdateTripInput{ClearDates: true})
	require.NoError(t, err)
	require.Nil(t, cleared.StartDate)
	require.Nil(t, cleared.EndDate)
}

func TestTripServiceDeleteCascades(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewTripService(db, newTestPolicy(t, db))
	require.NoError(t, err)

	owner := seedUser(t, db, "owner@example.com")
	friend := seedUser(t, db, "friend@example.com")
	trip := seedTrip(t, db, owner.ID, "Doomed")
	seedAccess(t, db, trip.ID, friend.ID)
	require.NoError(t, db.Create(&models.Place{TripID: trip.ID, LocationName: "Castle", DayNumber: 1}).Error)
	require.NoError(t, db.Create(&models.Invitation{
		TripID:    trip.ID,
		SenderID:  owner.ID,
		Email:     "invitee@example.com",
		Token:     "tok-1",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.ErrorIs(t, svc.Delete(context.Background(), trip.ID, friend.ID), ErrNotTripOwner)
	require.NoError(t, svc.Delete(context.Background(), trip.ID, owner.ID))

	for _, model := range []interface{}{&models.Trip{}, &models.Place{}, &models.TripAccess{}, &models.Invitation{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.EqualValues(t, 0, count)
	}
}
