package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"etf_tracker/internal/apperr"     // Error taxonomy
	"etf_tracker/internal/domain"     // Domain models
	"etf_tracker/internal/middleware" // Request state set by middleware
	"etf_tracker/internal/store"      // Persistence
	"etf_tracker/internal/utils"      // JWT and session utilities

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
	"golang.org/x/crypto/bcrypt"   // Password hashing
)

// Response struct for authentication
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// TokenIssuer signs tokens with a fixed secret and lifetime
type TokenIssuer struct {
	Secret string        // HMAC secret
	TTL    time.Duration // Token lifetime
}

// RegisterHandler creates a USER account
func RegisterHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}
		user := domain.User{Username: req.Username, Password: string(hash), Role: domain.RoleUser}
		// Attempt to create the user in the database
		if err := users.Create(c.Request.Context(), &user); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user ID
			"username": user.Username, // New username
		}).Info("User registered")
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler authenticates a user and returns a JWT token. Repeated
// failures for one username lock it out for the throttle window.
func LoginHandler(users *store.UserStore, throttle *utils.LoginThrottle, issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var req CredentialsRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		locked, err := throttle.Locked(ctx, req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		if locked {
			respondError(c, apperr.ErrLoginLocked)
			return
		}
		user, err := users.FindByUsername(ctx, req.Username) // Fetch user from database
		if err == nil {
			// Compare provided password with stored hash
			err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
		}
		if err != nil {
			if !errors.Is(err, apperr.ErrUserNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				respondError(c, err)
				return
			}
			n, ferr := throttle.Fail(ctx, req.Username)
			if ferr != nil {
				respondError(c, ferr)
				return
			}
			logrus.WithFields(logrus.Fields{
				"username": req.Username, // Attempted username
				"failures": n,            // Failures in the current window
			}).Warn("Failed login")
			respondError(c, apperr.ErrInvalidCredentials)
			return
		}
		if err := throttle.Reset(ctx, req.Username); err != nil {
			respondError(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(*user, issuer.Secret, issuer.TTL)
		if err != nil {
			respondError(c, err)
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}

// LogoutHandler revokes the presented token until it would have expired
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.ClaimsFrom(c)
		if err := utils.RevokeToken(c.Request.Context(), rdb, claims.ID, claims.Remaining()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// RefreshHandler swaps the presented token for a fresh one
func RefreshHandler(users *store.UserStore, rdb *redis.Client, issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, middleware.ActorFrom(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		token, err := utils.GenerateJWT(*user, issuer.Secret, issuer.TTL)
		if err != nil {
			respondError(c, err)
			return
		}
		// The old token must not outlive the refresh
		claims := middleware.ClaimsFrom(c)
		if err := utils.RevokeToken(ctx, rdb, claims.ID, claims.Remaining()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}

// CurrentUserHandler returns the authenticated user
func CurrentUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindByID(c.Request.Context(), middleware.ActorFrom(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateCurrentUserHandler changes the authenticated user's username. The role stays as it is.
func UpdateCurrentUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		actor := middleware.ActorFrom(c)
		user := domain.User{ID: actor.ID, Username: req.Username, Role: actor.Role}
		if err := users.UpdateProfile(c.Request.Context(), &user); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ChangePasswordHandler replaces the authenticated user's password after checking the current one
func ChangePasswordHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var req ChangePasswordRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		user, err := users.FindByID(ctx, middleware.ActorFrom(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			respondError(c, apperr.Validation("Current password is incorrect"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := users.SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
