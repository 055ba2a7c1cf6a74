package api

import (
	"net/http" // HTTP status codes

	"etf_tracker/internal/apperr"     // Error taxonomy
	"etf_tracker/internal/middleware" // Request state set by middleware
	"etf_tracker/internal/policy"     // Authorization policy
	"etf_tracker/internal/store"      // Persistence

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// ListEtfsHandler returns the ETFs the caller may see
func ListEtfsHandler(etfs *store.EtfStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := etfs.List(c.Request.Context(), listParams(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetEtfHandler returns one ETF if the caller may read it
func GetEtfHandler(etfs *store.EtfStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		etf, err := etfs.FindByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := policy.CanRead(middleware.ActorFrom(c), policy.OfEtf(etf), apperr.ErrEtfNotFound); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, etf)
	}
}

// CreateEtfHandler stores a new ETF owned by the caller
func CreateEtfHandler(etfs *store.EtfStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EtfRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		etf := req.Etf()
		etf.UserID = middleware.ActorFrom(c).ID // Owner is always the caller
		if err := etfs.Create(c.Request.Context(), &etf); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"etf_id":  etf.ID,     // New ETF
			"user_id": etf.UserID, // Owner
		}).Info("ETF created")
		c.JSON(http.StatusCreated, etf)
	}
}

// UpdateEtfHandler overwrites an ETF's fields; its owner never changes
func UpdateEtfHandler(etfs *store.EtfStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req EtfRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		existing, err := etfs.FindByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := policy.CanWrite(middleware.ActorFrom(c), policy.OfEtf(existing), apperr.ErrEtfNotFound); err != nil {
			respondError(c, err)
			return
		}
		in := req.Etf()
		in.UserID = existing.UserID
		etf, err := etfs.Update(ctx, id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, etf)
	}
}

// DeleteEtfHandler removes an ETF and its portfolio memberships
func DeleteEtfHandler(etfs *store.EtfStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		existing, err := etfs.FindByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		actor := middleware.ActorFrom(c)
		if err := policy.CanWrite(actor, policy.OfEtf(existing), apperr.ErrEtfNotFound); err != nil {
			respondError(c, err)
			return
		}
		if err := etfs.Delete(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"etf_id": id, "user_id": actor.ID}).Info("ETF deleted")
		c.JSON(http.StatusOK, gin.H{"message": "ETF deleted successfully"})
	}
}
