package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate runs auto-migration for every entity the API persists.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.School{},
		&models.SchoolAdmin{},
		&models.Principal{},
		&models.Teacher{},
		&models.Parent{},
		&models.Student{},
		&models.Approval{},
		&models.DeviceToken{},
		&models.Subject{},
		&models.Class{},
		&models.Lesson{},
		&models.Term{},
		&models.Holiday{},
		&models.CalendarEvent{},
		&models.Assignment{},
		&models.Submission{},
		&models.Exam{},
		&models.ExamSession{},
		&models.Result{},
		&models.Notification{},
	)
}
