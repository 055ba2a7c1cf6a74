package utils

import (
	"context" // Context for Redis operations
	"errors"  // Error inspection
	"strconv" // Integer formatting
	"strings" // String manipulation
	"time"    // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Key prefixes for state shared between server instances
const (
	revokedPrefix = "auth:revoked:"     // Revoked token IDs
	failedPrefix  = "auth:failed-login:" // Failed login counters per username
)

// RevokeToken marks a token ID as revoked until the token would have expired
func RevokeToken(ctx context.Context, rdb *redis.Client, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Already expired, nothing to remember
	}
	return rdb.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err() // Set key with TTL
}

// IsTokenRevoked reports whether a token ID has been revoked
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, tokenID string) (bool, error) {
	err := rdb.Get(ctx, revokedPrefix+tokenID).Err() // Look up the key
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, nil
}

// LoginThrottle counts failed logins per username inside a fixed window
type LoginThrottle struct {
	rdb         *redis.Client // Redis client
	maxAttempts int           // Failures allowed per window
	window      time.Duration // Counting window
}

// NewLoginThrottle creates a throttle allowing maxAttempts failures per window
func NewLoginThrottle(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, maxAttempts: maxAttempts, window: window}
}

// Usernames are case-sensitive, so "Bob" and "bob" count separately
func failedKey(username string) string {
	return failedPrefix + strings.TrimSpace(username)
}

// Locked reports whether username has used up its failures for the window
func (t *LoginThrottle) Locked(ctx context.Context, username string) (bool, error) {
	val, err := t.rdb.Get(ctx, failedKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil // No failures recorded
	} else if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return false, err
	}
	return n >= t.maxAttempts, nil
}

// Fail records a failed login and returns the failures so far in the window
func (t *LoginThrottle) Fail(ctx context.Context, username string) (int64, error) {
	key := failedKey(username)
	n, err := t.rdb.Incr(ctx, key).Result() // Count the failure
	if err != nil {
		return 0, err
	}
	if n == 1 {
		// Window starts at the first failure
		if err := t.rdb.Expire(ctx, key, t.window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Reset forgets failures after a successful login
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	return t.rdb.Del(ctx, failedKey(username)).Err() // Delete key from Redis
}
