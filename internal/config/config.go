package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string        // Application port
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	JWTSecret        string        // JWT secret key
	JWTTTL           time.Duration // JWT lifetime
	RedisAddr        string        // Redis server address
	RedisPass        string        // Redis password
	RedisDB          int           // Redis database number
	IsProd           bool          // Is production environment
	CORSOrigin       string        // Frontend origin allowed by CORS
	StaticDir        string        // Directory holding the built frontend
	AdminUsername    string        // Bootstrap admin username
	AdminPassword    string        // Bootstrap admin password
	LoginMaxAttempts int           // Failed logins allowed per window
	LoginLockWindow  time.Duration // Window for counting failed logins
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),                       // Application port
		DBUser:           os.Getenv("DB_USER"),                             // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                         // Database password
		DBHost:           getEnv("DB_HOST", "127.0.0.1"),                   // Database host
		DBPort:           getEnv("DB_PORT", "3306"),                        // Database port
		DBName:           os.Getenv("DB_NAME"),                             // Database name
		JWTSecret:        os.Getenv("JWT_SECRET"),                          // JWT secret key
		JWTTTL:           getDuration("JWT_TTL", 24*time.Hour),             // JWT lifetime
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),           // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),                          // Redis password
		RedisDB:          getInt("REDIS_DB", 0),                            // Redis database number
		IsProd:           os.Getenv("IS_PROD") == "true",                   // Is production environment
		CORSOrigin:       getEnv("CORS_ORIGIN", "http://localhost:5173"),   // Frontend origin
		StaticDir:        getEnv("STATIC_DIR", "./static"),                 // Built frontend
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),                      // Bootstrap admin username
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),                      // Bootstrap admin password
		LoginMaxAttempts: getInt("LOGIN_MAX_ATTEMPTS", 5),                  // Failed logins per window
		LoginLockWindow:  getDuration("LOGIN_LOCK_WINDOW", 15*time.Minute), // Failed login window
	}
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// getEnv returns the variable or def when unset or empty
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt parses an integer variable, falling back to def
func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getDuration parses a duration variable such as "15m", falling back to def
func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
