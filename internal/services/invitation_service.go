package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/access"
	"github.com/skovtun/wayplan/internal/auth"
	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/internal/notify"
	"github.com/skovtun/wayplan/pkg/logger"
	"github.com/skovtun/wayplan/pkg/metrics"
)

var (
	// ErrInviteNotFound covers unknown, non-pending, and expired invitation tokens
	// alike so the response does not reveal which case applied.
	ErrInviteNotFound = errors.New("invitation service: invitation not found")
	// ErrSelfInvite indicates the owner tried to invite their own email.
	ErrSelfInvite = errors.New("invitation service: cannot invite yourself")
	// ErrAlreadyCollaborator indicates the invitee already holds access to the trip.
	ErrAlreadyCollaborator = errors.New("invitation service: user already has access")
	// ErrInviteAlreadyPending indicates an open invitation exists for the same email.
	ErrInviteAlreadyPending = errors.New("invitation service: invitation already pending")
	// ErrInviteEmailMismatch indicates the signed-in account does not match the invitee.
	ErrInviteEmailMismatch = errors.New("invitation service: invitation addressed to a different email")
	// ErrInviteNotPending indicates a revoke on an already resolved invitation.
	ErrInviteNotPending = errors.New("invitation service: invitation is not pending")
	// ErrLoginRequired signals a suspended acceptance: the token is valid but the
	// caller must authenticate first and retry. Not a failure.
	ErrLoginRequired = errors.New("invitation service: login required to accept")
)

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationClock injects a custom time source, primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InvitationService drives the invitation lifecycle: PENDING on creation, then
// ACCEPTED or REVOKED. Expiry is a read-time guard on acceptance, never a stored
// transition.
type InvitationService struct {
	db       *gorm.DB
	policy   *access.Policy
	tokens   *auth.TokenService
	notifier *notify.Notifier
	now      func() time.Time
	log      *zap.Logger
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
// The notifier may be nil, in which case invitations are created without email.
func NewInvitationService(db *gorm.DB, policy *access.Policy, tokens *auth.TokenService, notifier *notify.Notifier, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if policy == nil {
		return nil, errors.New("invitation service: access policy is required")
	}
	if tokens == nil {
		return nil, errors.New("invitation service: token service is required")
	}

	service := &InvitationService{
		db:       db,
		policy:   policy,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithModule("invitations"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Create issues a PENDING invitation for the trip and dispatches the invite email.
// Unlike registration, a failed dispatch deletes the invitation again: an invitation
// whose token was never delivered could otherwise linger until expiry with no way
// for the invitee to discover it.
func (s *InvitationService) Create(ctx context.Context, tripID, senderID, email string) (*models.Invitation, error) {
	ctx = ensuredContext(ctx)
	email = normaliseEmail(email)
	if email == "" {
		return nil, errors.New("invitation service: email is required")
	}

	trip, decision, err := s.policy.ResolveTrip(ctx, tripID, senderID)
	if err != nil {
		if errors.Is(err, access.ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if !decision.IsOwner {
		return nil, ErrNotTripOwner
	}

	var sender models.User
	if err := s.db.WithContext(ctx).First(&sender, "id = ?", senderID).Error; err != nil {
		return nil, fmt.Errorf("invitation service: load sender: %w", err)
	}
	if sender.Email == email {
		return nil, ErrSelfInvite
	}

	var accessCount int64
	err = s.db.WithContext(ctx).
		Model(&models.TripAccess{}).
		Where("trip_id = ? AND user_id IN (?)", trip.ID,
			s.db.Model(&models.User{}).Select("id").Where("email = ?", email),
		).
		Count(&accessCount).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: check existing access: %w", err)
	}
	if accessCount > 0 {
		return nil, ErrAlreadyCollaborator
	}

	var pendingCount int64
	err = s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("trip_id = ? AND email = ? AND status = ?", trip.ID, email, models.InvitationPending).
		Count(&pendingCount).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: check pending invitation: %w", err)
	}
	if pendingCount > 0 {
		return nil, ErrInviteAlreadyPending
	}

	token, err := s.tokens.Issue(auth.PurposeInvitation)
	if err != nil {
		return nil, fmt.Errorf("invitation service: issue token: %w", err)
	}

	invitation := models.Invitation{
		TripID:    trip.ID,
		SenderID:  sender.ID,
		Email:     email,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: s.now().Add(auth.InvitationTTL),
	}

	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		metrics.InvitationTransitions.WithLabelValues("created", "error").Inc()
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	if s.notifier != nil {
		senderName := sender.Name
		if senderName == "" {
			senderName = sender.Email
		}
		if mailErr := s.notifier.SendInvitation(ctx, email, senderName, trip.Title, token); mailErr != nil {
			if delErr := s.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", invitation.ID).Error; delErr != nil {
				s.log.Error("invitation rollback failed after email error",
					zap.String("invitation_id", invitation.ID), zap.Error(delErr))
			}
			metrics.InvitationTransitions.WithLabelValues("created", "error").Inc()
			return nil, fmt.Errorf("%w: %v", ErrEmailDispatchFailed, mailErr)
		}
	}

	metrics.InvitationTransitions.WithLabelValues("created", "ok").Inc()
	return &invitation, nil
}

// AcceptResult reports the outcome of a successful acceptance.
type AcceptResult struct {
	Invitation    *models.Invitation
	Trip          *models.Trip
	AlreadyMember bool
}

// Accept redeems an invitation token for the given user. A nil user yields
// ErrLoginRequired: the token is valid but acceptance is suspended until the caller
// signs in and retries. Expired and unknown tokens fail identically.
func (s *InvitationService) Accept(ctx context.Context, token string, user *models.User) (*AcceptResult, error) {
	ctx = ensuredContext(ctx)

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Trip").
		Where("token = ? AND status = ? AND expires_at > ?", token, models.InvitationPending, s.now()).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}

	if user == nil {
		return nil, ErrLoginRequired
	}

	if normaliseEmail(user.Email) != invitation.Email {
		return nil, ErrInviteEmailMismatch
	}

	var existing int64
	err = s.db.WithContext(ctx).
		Model(&models.TripAccess{}).
		Where("trip_id = ? AND user_id = ?", invitation.TripID, user.ID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: check existing access: %w", err)
	}

	if existing > 0 {
		// Re-clicking an old link after already joining: resolve the invitation
		// without creating a duplicate grant.
		if err := s.markAccepted(ctx, s.db, &invitation, user.ID); err != nil {
			return nil, err
		}
		metrics.InvitationTransitions.WithLabelValues("accepted", "ok").Inc()
		return &AcceptResult{Invitation: &invitation, Trip: invitation.Trip, AlreadyMember: true}, nil
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grant := models.TripAccess{
			TripID: invitation.TripID,
			UserID: user.ID,
			Role:   models.RoleCollaborator,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		return s.markAccepted(ctx, tx, &invitation, user.ID)
	})
	if txErr != nil {
		if isUniqueConstraintError(txErr) {
			// A concurrent accept created the grant first. Resolve the invitation
			// outside the aborted transaction and report the idempotent outcome.
			if err := s.markAccepted(ctx, s.db, &invitation, user.ID); err != nil {
				return nil, err
			}
			metrics.InvitationTransitions.WithLabelValues("accepted", "ok").Inc()
			return &AcceptResult{Invitation: &invitation, Trip: invitation.Trip, AlreadyMember: true}, nil
		}
		metrics.InvitationTransitions.WithLabelValues("accepted", "error").Inc()
		return nil, fmt.Errorf("invitation service: accept invitation: %w", txErr)
	}

	metrics.InvitationTransitions.WithLabelValues("accepted", "ok").Inc()
	return &AcceptResult{Invitation: &invitation, Trip: invitation.Trip}, nil
}

// Revoke cancels a pending invitation. Owner only; resolved invitations stay resolved.
func (s *InvitationService) Revoke(ctx context.Context, invitationID, userID string) (*models.Invitation, error) {
	ctx = ensuredContext(ctx)

	var invitation models.Invitation
	err := s.db.WithContext(ctx).Preload("Trip").First(&invitation, "id = ?", invitationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}

	if invitation.Trip == nil || invitation.Trip.OwnerID != userID {
		return nil, ErrNotTripOwner
	}

	if invitation.Status != models.InvitationPending {
		return nil, ErrInviteNotPending
	}

	err = s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("status", models.InvitationRevoked).Error
	if err != nil {
		metrics.InvitationTransitions.WithLabelValues("revoked", "error").Inc()
		return nil, fmt.Errorf("invitation service: revoke invitation: %w", err)
	}

	invitation.Status = models.InvitationRevoked
	metrics.InvitationTransitions.WithLabelValues("revoked", "ok").Inc()
	return &invitation, nil
}

func (s *InvitationService) markAccepted(ctx context.Context, db *gorm.DB, invitation *models.Invitation, receiverID string) error {
	updates := map[string]any{
		"status":      models.InvitationAccepted,
		"receiver_id": receiverID,
	}
	err := db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("invitation service: mark accepted: %w", err)
	}

	invitation.Status = models.InvitationAccepted
	invitation.ReceiverID = &receiverID
	return nil
}
