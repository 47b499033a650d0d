package database

import (
	"log"

	"github.com/withmates/activity-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Activity{}, &models.Participant{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// One ledger row per (activity, user) pair, forever. Reapplication reuses
	// the row; this index is what makes concurrent first-interest calls safe.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_participant_pair
		ON activity_participants (activity_id, user_id)
	`)

	// The sweeps select on (status, activity_date).
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_activity_status_date
		ON activities (status, activity_date)
	`)

	return db
}
