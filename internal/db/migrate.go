package db

import (
	"errors" // Error inspection
	"fmt"    // Error wrapping

	"etf_tracker/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// Open opens a MySQL connection with driver errors translated to gorm errors
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true}) // Open a connection to the database
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Migrate creates tables, missing columns, constraints and indexes
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Etf{}, &domain.Portfolio{}, &domain.PortfolioEtf{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// MySQL compares strings case-insensitively by default; usernames are case-sensitive
	if db.Dialector.Name() == "mysql" {
		if err := db.Exec("ALTER TABLE users MODIFY username VARCHAR(191) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL").Error; err != nil {
			return fmt.Errorf("set username collation: %w", err)
		}
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// SeedAdmin creates the bootstrap admin account when it does not exist yet
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil // Nothing configured
	}
	var existing domain.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil // Already seeded
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := domain.User{Username: username, Password: string(hash), Role: domain.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  admin.ID,       // Admin ID
		"username": admin.Username, // Admin username
	}).Info("Admin account seeded")
	return nil
}
