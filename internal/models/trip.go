package models

import "time"

// Trip is the unit of collaboration. Exactly one user owns it; collaborators are
// attached through TripAccess rows created on invitation acceptance.
type Trip struct {
	BaseModel

	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`

	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Places      []Place      `gorm:"foreignKey:TripID" json:"places,omitempty"`
	Accesses    []TripAccess `gorm:"foreignKey:TripID" json:"accesses,omitempty"`
	Invitations []Invitation `gorm:"foreignKey:TripID" json:"invitations,omitempty"`
}
