package database

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mora-delivery/database/seeders"
	"mora-delivery/logger"
	"mora-delivery/models/attendance"
	"mora-delivery/models/log"
	"mora-delivery/models/pkg"
	"mora-delivery/models/shift"
	"mora-delivery/models/user"
)

var DB *gorm.DB

// InitDB initializes the database connection, runs migrations and seeds the
// demo identities.
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, username, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	seeders.SeedUsers(DB)

	return DB, nil
}

// autoMigrate runs auto migration for all models, foundation tables first so
// later stages can reference them.
func autoMigrate() error {
	// Stage 1: identity and attendance
	stage1Models := []interface{}{
		&user.User{},
		&attendance.Attendance{},
	}
	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: shift archive and its package snapshots
	stage2Models := []interface{}{
		&shift.Archive{},
		&pkg.Package{},
		&shift.Event{},
	}
	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: request log
	if err := DB.AutoMigrate(&log.Log{}); err != nil {
		return fmt.Errorf("failed to migrate %T: %w", &log.Log{}, err)
	}

	return nil
}
