package models

// Trip roles. OWNER is implicit via Trip.OwnerID and never stored in TripAccess.
const (
	RoleOwner        = "OWNER"
	RoleCollaborator = "COLLABORATOR"
)

// TripAccess grants a non-owner user a role on a trip. Rows are created only by
// invitation acceptance. The composite unique index closes the race between two
// concurrent accepts for the same user.
type TripAccess struct {
	BaseModel

	TripID string `gorm:"type:uuid;not null;uniqueIndex:idx_trip_access_trip_user" json:"trip_id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_trip_access_trip_user" json:"user_id"`
	Role   string `gorm:"not null;default:COLLABORATOR" json:"role"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
