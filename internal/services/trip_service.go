package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/access"
	"github.com/skovtun/wayplan/internal/models"
)

var (
	// ErrTripNotFound covers both a missing trip and one the caller may not see.
	ErrTripNotFound = errors.New("trip service: trip not found")
	// ErrNotTripOwner indicates an operation reserved for the trip owner.
	ErrNotTripOwner = errors.New("trip service: caller is not the trip owner")
	// ErrInvalidDateRange indicates a start date after the end date.
	ErrInvalidDateRange = errors.New("trip service: start date is after end date")
	// ErrTitleRequired indicates an empty or whitespace-only title.
	ErrTitleRequired = errors.New("trip service: title is required")
)

// Sort columns accepted by List.
const (
	SortByCreatedAt = "created_at"
	SortByTitle     = "title"
	SortByStartDate = "start_date"
)

// TripService manages trip CRUD, with every operation gated by the access policy.
type TripService struct {
	db     *gorm.DB
	policy *access.Policy
}

// NewTripService constructs a TripService once its dependencies are supplied.
func NewTripService(db *gorm.DB, policy *access.Policy) (*TripService, error) {
	if db == nil {
		return nil, errors.New("trip service: db is required")
	}
	if policy == nil {
		return nil, errors.New("trip service: access policy is required")
	}
	return &TripService{db: db, policy: policy}, nil
}

// ListTripsOptions controls filtering and ordering of the trip list.
type ListTripsOptions struct {
	Search    string
	SortBy    string // created_at (default), title, or start_date
	SortOrder string // asc or desc (default)
}

// CreateTripInput captures the fields accepted when creating a trip.
type CreateTripInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateTripInput describes mutable trip fields. A nil pointer indicates no change.
type UpdateTripInput struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClearDates  bool
}

// List returns every trip the user owns or collaborates on, optionally filtered by a
// case-insensitive substring over title and description.
func (s *TripService) List(ctx context.Context, userID string, opts ListTripsOptions) ([]models.Trip, error) {
	ctx = ensuredContext(ctx)

	orderClause, err := buildOrderClause(opts.SortBy, opts.SortOrder)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("owner_id = ? OR id IN (?)", userID,
			s.db.Model(&models.TripAccess{}).Select("trip_id").Where("user_id = ?", userID),
		)

	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var trips []models.Trip
	err = query.
		Preload("Owner").
		Preload("Accesses").
		Order(orderClause).
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("trip service: list trips: %w", err)
	}

	return trips, nil
}

// Create persists a new trip owned by the caller.
func (s *TripService) Create(ctx context.Context, userID string, input CreateTripInput) (*models.Trip, error) {
	ctx = ensuredContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	trip := models.Trip{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		OwnerID:     userID,
	}

	if err := s.db.WithContext(ctx).Create(&trip).Error; err != nil {
		return nil, fmt.Errorf("trip service: create trip: %w", err)
	}

	return &trip, nil
}

// Get loads a trip with its places, collaborators, and pending invitations.
// Missing trips and inaccessible trips are indistinguishable to the caller.
func (s *TripService) Get(ctx context.Context, tripID, userID string) (*models.Trip, access.Decision, error) {
	ctx = ensuredContext(ctx)

	trip, decision, err := s.policy.ResolveTrip(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, access.ErrTripNotFound) {
			return nil, access.Decision{}, ErrTripNotFound
		}
		return nil, access.Decision{}, err
	}
	if !decision.HasAccess {
		return nil, access.Decision{}, ErrTripNotFound
	}

	var loaded models.Trip
	err = s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Places", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_number ASC, created_at ASC")
		}).
		Preload("Accesses.User").
		Preload("Invitations", "status = ?", models.InvitationPending).
		First(&loaded, "id = ?", trip.ID).Error
	if err != nil {
		return nil, access.Decision{}, fmt.Errorf("trip service: load trip: %w", err)
	}

	return &loaded, decision, nil
}

// Update applies partial changes to a trip. Owner only.
func (s *TripService) Update(ctx context.Context, tripID, userID string, input UpdateTripInput) (*models.Trip, error) {
	ctx = ensuredContext(ctx)

	trip, decision, err := s.policy.ResolveTrip(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, access.ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if !decision.IsOwner {
		return nil, ErrNotTripOwner
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		updates["title"] = title
		trip.Title = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
		trip.Description = strings.TrimSpace(*input.Description)
	}

	start, end := trip.StartDate, trip.EndDate
	if input.ClearDates {
		start, end = nil, nil
		updates["start_date"] = nil
		updates["end_date"] = nil
	}
	if input.StartDate != nil {
		start = input.StartDate
		updates["start_date"] = input.StartDate
	}
	if input.EndDate != nil {
		end = input.EndDate
		updates["end_date"] = input.EndDate
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}
	trip.StartDate, trip.EndDate = start, end

	if len(updates) == 0 {
		return trip, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Trip{}).Where("id = ?", trip.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("trip service: update trip: %w", err)
	}

	return trip, nil
}

// Delete removes a trip and cascades to its places, access grants, and invitations
// in a single transaction so no orphaned references survive. Owner only.
func (s *TripService) Delete(ctx context.Context, tripID, userID string) error {
	ctx = ensuredContext(ctx)

	trip, decision, err := s.policy.ResolveTrip(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, access.ErrTripNotFound) {
			return ErrTripNotFound
		}
		return err
	}
	if !decision.IsOwner {
		return ErrNotTripOwner
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Place{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.TripAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Trip{}, "id = ?", trip.ID).Error
	})
	if err != nil {
		return fmt.Errorf("trip service: delete trip: %w", err)
	}

	return nil
}

func buildOrderClause(sortBy, sortOrder string) (string, error) {
	column := SortByCreatedAt
	switch strings.TrimSpace(sortBy) {
	case "", SortByCreatedAt:
	case SortByTitle:
		column = SortByTitle
	case SortByStartDate:
		column = SortByStartDate
	default:
		return "", fmt.Errorf("trip service: unsupported sort column %q", sortBy)
	}

	direction := "DESC"
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return "", fmt.Errorf("trip service: unsupported sort order %q", sortOrder)
	}

	return column + " " + direction, nil
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return ErrInvalidDateRange
	}
	return nil
}
