package middleware

import (
	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/policy" // Authorization policy

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware rejects actors without the ADMIN role. It runs after
// ActorMiddleware, which has already re-read the role from the database.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if user role is admin
		if err := policy.RequireAdmin(ActorFrom(c)); err != nil {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
