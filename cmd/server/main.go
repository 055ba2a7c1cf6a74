package main

import (
	"context" // context package is needed for Redis operations

	"etf_tracker/internal/api"    // Custom package for API handlers
	"etf_tracker/internal/config" // Custom package for configuration
	"etf_tracker/internal/db"     // Custom package for database setup
	"etf_tracker/internal/store"  // Custom package for persistence
	"etf_tracker/internal/utils"  // Custom package for session utilities

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and bring the schema up to date
	conn, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if err := db.SeedAdmin(conn, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Stores:     store.New(conn),                                                                // Persistence
		Redis:      redisClient,                                                                    // Token denylist
		Throttle:   utils.NewLoginThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockWindow), // Failed logins
		Tokens:     api.TokenIssuer{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL},                        // JWT signing
		CORSOrigin: cfg.CORSOrigin,                                                                 // Frontend origin
		StaticDir:  cfg.StaticDir,                                                                  // Built frontend
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.Info("Server running on " + cfg.AppPort) // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
