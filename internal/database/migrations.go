package database

import (
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.TripAccess{},
		&models.Place{},
		&models.Invitation{},
	)
}
