package store

import (
	"fmt"
	"log"

	"faceclock/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ============================================================
// DATABASE SETUP
// ============================================================

// Open connects to MySQL and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.WorkerProfile{},
		&models.AttendanceRecord{},
		&models.Site{},
		&models.AccessOverride{},
		&models.SpoofEvent{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("✅ Database connected and migrated")
	return db, nil
}
