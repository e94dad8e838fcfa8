package db

import (
	"repopulse/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.SourceEvent{},
		&models.Repository{},
		&models.ScoreSnapshot{},
		&models.Alert{},
		&models.SourceHealth{},
	)
}
