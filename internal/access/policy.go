package access

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/models"
)

// ErrTripNotFound indicates the trip does not exist. Callers surface it as a 404,
// deliberately indistinguishable from "exists but no access".
var ErrTripNotFound = errors.New("access: trip not found")

// Decision is the effective authorization of one user on one trip.
type Decision struct {
	IsOwner   bool
	Role      string // RoleOwner, RoleCollaborator, or "" when no access
	HasAccess bool
}

// Policy is the single authorization gate consulted by every trip, place, and
// invitation operation. No operation may bypass it.
type Policy struct {
	db *gorm.DB
}

// NewPolicy constructs the access policy over the shared database handle.
func NewPolicy(db *gorm.DB) (*Policy, error) {
	if db == nil {
		return nil, errors.New("access policy: db is required")
	}
	return &Policy{db: db}, nil
}

// Resolve computes the caller's effective role on an already-loaded trip.
// Exactly one of owner, collaborator, or none holds for any (trip, user) pair.
func (p *Policy) Resolve(ctx context.Context, trip *models.Trip, userID string) (Decision, error) {
	if trip == nil {
		return Decision{}, errors.New("access policy: trip is required")
	}

	if trip.OwnerID == userID {
		return Decision{IsOwner: true, Role: models.RoleOwner, HasAccess: true}, nil
	}

	var grant models.TripAccess
	err := p.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ?", trip.ID, userID).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("access policy: lookup grant: %w", err)
	}

	return Decision{Role: grant.Role, HasAccess: true}, nil
}

// ResolveTrip loads the trip and computes the caller's decision in one step.
func (p *Policy) ResolveTrip(ctx context.Context, tripID, userID string) (*models.Trip, Decision, error) {
	var trip models.Trip
	err := p.db.WithContext(ctx).First(&trip, "id = ?", tripID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Decision{}, ErrTripNotFound
		}
		return nil, Decision{}, fmt.Errorf("access policy: load trip: %w", err)
	}

	decision, err := p.Resolve(ctx, &trip, userID)
	if err != nil {
		return nil, Decision{}, err
	}

	return &trip, decision, nil
}
