package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/policy" // Authorization policy
	"etf_tracker/internal/store"  // Persistence

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// ActorMiddleware loads the user behind the token on each request so role
// changes and deletions take effect immediately
func ActorMiddleware(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		id, ok := userID.(uint)
		if !exists || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := users.FindByID(c.Request.Context(), id)
		if errors.Is(err, apperr.ErrUserNotFound) {
			// Account deleted after the token was issued
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if err != nil {
			logrus.WithError(err).WithField("user_id", id).Error("Failed to load actor")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(ActorKey, policy.ActorFrom(*user))
		c.Next()
	}
}

// ActorFrom returns the actor stored by ActorMiddleware
func ActorFrom(c *gin.Context) policy.Actor {
	v, _ := c.Get(ActorKey)
	actor, _ := v.(policy.Actor)
	return actor
}
