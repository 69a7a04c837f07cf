package models

import "time"

// Invitation statuses. Expiry is not a stored state: a PENDING invitation whose
// ExpiresAt has passed is simply refused on acceptance.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRevoked  = "REVOKED"
)

// Invitation is a time-boxed, single-use offer of collaborator access, keyed by token.
type Invitation struct {
	BaseModel

	TripID   string `gorm:"type:uuid;not null;index" json:"trip_id"`
	SenderID string `gorm:"type:uuid;not null" json:"sender_id"`
	Email    string `gorm:"not null;index" json:"email"`
	Token    string `gorm:"uniqueIndex;not null" json:"-"`
	Status   string `gorm:"not null;default:PENDING" json:"status"`

	ExpiresAt  time.Time `gorm:"index" json:"expires_at"`
	ReceiverID *string   `gorm:"type:uuid" json:"receiver_id,omitempty"`

	Trip *Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
}

// Expired reports whether the invitation can no longer be accepted at the given time.
func (i *Invitation) Expired(now time.Time) bool {
	return i != nil && !i.ExpiresAt.After(now)
}
