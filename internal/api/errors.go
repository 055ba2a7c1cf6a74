package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"etf_tracker/internal/apperr" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// respondError writes err as {"error": "..."} with the status of its kind.
// Unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // Request method
			"path":   c.FullPath(),     // Route pattern
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// pathID parses a numeric path parameter, answering 400 when it is malformed
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
