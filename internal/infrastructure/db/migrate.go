package db

import (
	"video-processor/internal/domain/entities"

	"gorm.io/gorm"
)

// AutoMigrate creates the document table from the gorm model. Used by tests
// and by deployments that do not run goose.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.Video{},
	)
}
