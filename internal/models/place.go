package models

// Place is a single stop within a trip, grouped by day number.
type Place struct {
	BaseModel

	TripID       string `gorm:"type:uuid;not null;index" json:"trip_id"`
	LocationName string `gorm:"not null" json:"location_name"`
	Notes        string `json:"notes,omitempty"`
	DayNumber    int    `gorm:"not null" json:"day_number"`
}
