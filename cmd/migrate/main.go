package main

import (
	"etf_tracker/internal/config" // Custom import path (Config)
	"etf_tracker/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	conn, err := db.Open(cfg.DSN()) // Connect to MySQL
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	if err := db.SeedAdmin(conn, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("seeding admin failed: %v", err)
	}
}
