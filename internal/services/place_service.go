package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/access"
	"github.com/skovtun/wayplan/internal/models"
)

var (
	// ErrPlaceNotFound covers a missing place and a place addressed under the wrong trip.
	ErrPlaceNotFound = errors.New("place service: place not found")
	// ErrLocationNameRequired indicates an empty or whitespace-only location name.
	ErrLocationNameRequired = errors.New("place service: location name is required")
	// ErrDayNumberInvalid indicates a day number below one.
	ErrDayNumberInvalid = errors.New("place service: day number must be positive")
)

// PlaceService manages places within a trip. Every operation requires the caller to
// hold access on the parent trip; owner and collaborator are treated alike.
type PlaceService struct {
	db     *gorm.DB
	policy *access.Policy
}

// NewPlaceService constructs a PlaceService once its dependencies are supplied.
func NewPlaceService(db *gorm.DB, policy *access.Policy) (*PlaceService, error) {
	if db == nil {
		return nil, errors.New("place service: db is required")
	}
	if policy == nil {
		return nil, errors.New("place service: access policy is required")
	}
	return &PlaceService{db: db, policy: policy}, nil
}

// CreatePlaceInput captures the fields accepted when adding a place.
type CreatePlaceInput struct {
	LocationName string
	Notes        string
	DayNumber    int
}

// UpdatePlaceInput describes mutable place fields. A nil pointer indicates no change.
type UpdatePlaceInput struct {
	LocationName *string
	Notes        *string
	DayNumber    *int
}

// List returns the trip's places ordered by day.
func (s *PlaceService) List(ctx context.Context, tripID, userID string) ([]models.Place, error) {
	ctx = ensuredContext(ctx)

	if _, err := s.requireAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	var places []models.Place
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("day_number ASC, created_at ASC").
		Find(&places).Error
	if err != nil {
		return nil, fmt.Errorf("place service: list places: %w", err)
	}

	return places, nil
}

// Create adds a place to the trip.
func (s *PlaceService) Create(ctx context.Context, tripID, userID string, input CreatePlaceInput) (*models.Place, error) {
	ctx = ensuredContext(ctx)

	trip, err := s.requireAccess(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.LocationName)
	if name == "" {
		return nil, ErrLocationNameRequired
	}
	if input.DayNumber < 1 {
		return nil, ErrDayNumberInvalid
	}

	place := models.Place{
		TripID:       trip.ID,
		LocationName: name,
		Notes:        strings.TrimSpace(input.Notes),
		DayNumber:    input.DayNumber,
	}

	if err := s.db.WithContext(ctx).Create(&place).Error; err != nil {
		return nil, fmt.Errorf("place service: create place: %w", err)
	}

	return &place, nil
}

// Update applies partial changes to a place belonging to the trip.
func (s *PlaceService) Update(ctx context.Context, tripID, placeID, userID string, input UpdatePlaceInput) (*models.Place, error) {
	ctx = ensuredContext(ctx)

	place, err := s.loadPlace(ctx, tripID, placeID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.LocationName != nil {
		name := strings.TrimSpace(*input.LocationName)
		if name == "" {
			return nil, ErrLocationNameRequired
		}
		updates["location_name"] = name
		place.LocationName = name
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
		place.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.DayNumber != nil {
		if *input.DayNumber < 1 {
			return nil, ErrDayNumberInvalid
		}
		updates["day_number"] = *input.DayNumber
		place.DayNumber = *input.DayNumber
	}

	if len(updates) == 0 {
		return place, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Place{}).Where("id = ?", place.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("place service: update place: %w", err)
	}

	return place, nil
}

// Delete removes a place belonging to the trip.
func (s *PlaceService) Delete(ctx context.Context, tripID, placeID, userID string) error {
	ctx = ensuredContext(ctx)

	place, err := s.loadPlace(ctx, tripID, placeID, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Place{}, "id = ?", place.ID).Error; err != nil {
		return fmt.Errorf("place service: delete place: %w", err)
	}

	return nil
}

func (s *PlaceService) requireAccess(ctx context.Context, tripID, userID string) (*models.Trip, error) {
	trip, decision, err := s.policy.ResolveTrip(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, access.ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if !decision.HasAccess {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

func (s *PlaceService) loadPlace(ctx context.Context, tripID, placeID, userID string) (*models.Place, error) {
	if _, err := s.requireAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	var place models.Place
	err := s.db.WithContext(ctx).First(&place, "id = ?", placeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("place service: load place: %w", err)
	}

	if place.TripID != tripID {
		return nil, ErrPlaceNotFound
	}

	return &place, nil
}
