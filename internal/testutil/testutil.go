// Package testutil opens throwaway databases and redis servers for tests.
package testutil

import (
	"testing" // Test helpers

	"etf_tracker/internal/db"     // Schema migration
	"etf_tracker/internal/domain" // Domain models

	"github.com/alicebob/miniredis/v2" // In-process Redis server
	"github.com/google/uuid"           // Unique database names
	"github.com/redis/go-redis/v9"     // Redis client
	"golang.org/x/crypto/bcrypt"       // Password hashing
	"gorm.io/driver/sqlite"            // SQLite driver for GORM
	"gorm.io/gorm"                     // GORM ORM library
	"gorm.io/gorm/logger"              // Silent query logging
)

// OpenDB opens a private in-memory SQLite database with the schema applied.
// It is closed via t.Cleanup.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A unique shared-cache name keeps tests isolated while letting the pool share one database.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// NewRedis starts an in-process redis server and returns a client for it
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

// CreateUser inserts a user with a cheaply hashed password
func CreateUser(t *testing.T, conn *gorm.DB, username, password string, role domain.Role) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := domain.User{Username: username, Password: string(hash), Role: role}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}
