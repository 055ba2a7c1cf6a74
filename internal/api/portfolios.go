package api

import (
	"net/http" // HTTP status codes

	"etf_tracker/internal/apperr"     // Error taxonomy
	"etf_tracker/internal/domain"     // Domain models
	"etf_tracker/internal/middleware" // Request state set by middleware
	"etf_tracker/internal/policy"     // Authorization policy
	"etf_tracker/internal/store"      // Persistence

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// ListPortfoliosHandler returns the portfolios the caller may see
func ListPortfoliosHandler(portfolios *store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := portfolios.List(c.Request.Context(), listParams(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// loadPortfolio fetches the :id portfolio and checks access with check.
// It writes the error response itself and returns nil on failure.
func loadPortfolio(c *gin.Context, portfolios *store.PortfolioStore, param string,
	check func(policy.Actor, *policy.Resource, error) error) *domain.Portfolio {
	id, ok := pathID(c, param)
	if !ok {
		return nil
	}
	p, err := portfolios.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil
	}
	if err := check(middleware.ActorFrom(c), policy.OfPortfolio(p), apperr.ErrPortfolioNotFound); err != nil {
		respondError(c, err)
		return nil
	}
	return p
}

// GetPortfolioHandler returns one portfolio if the caller may read it
func GetPortfolioHandler(portfolios *store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := loadPortfolio(c, portfolios, "id", policy.CanRead)
		if p == nil {
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// CreatePortfolioHandler stores a new portfolio owned by the caller
func CreatePortfolioHandler(portfolios *store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PortfolioRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		p := req.Portfolio()
		p.UserID = middleware.ActorFrom(c).ID // Owner is always the caller
		if err := portfolios.Create(c.Request.Context(), &p); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"portfolio_id": p.ID,     // New portfolio
			"user_id":      p.UserID, // Owner
		}).Info("Portfolio created")
		c.JSON(http.StatusCreated, p)
	}
}

// UpdatePortfolioHandler renames a portfolio or changes its visibility
func UpdatePortfolioHandler(portfolios *store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PortfolioRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		existing := loadPortfolio(c, portfolios, "id", policy.CanWrite)
		if existing == nil {
			return
		}
		in := req.Portfolio()
		in.UserID = existing.UserID
		p, err := portfolios.Update(c.Request.Context(), existing.ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// DeletePortfolioHandler removes a portfolio and its memberships; the ETFs stay
func DeletePortfolioHandler(portfolios *store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := loadPortfolio(c, portfolios, "id", policy.CanWrite)
		if p == nil {
			return
		}
		if err := portfolios.Delete(c.Request.Context(), p.ID); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"portfolio_id": p.ID, "user_id": middleware.ActorFrom(c).ID}).Info("Portfolio deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Portfolio deleted successfully"})
	}
}

// PortfolioEtfsHandler lists the ETFs in a readable portfolio that the caller may also read
func PortfolioEtfsHandler(portfolios *store.PortfolioStore, memberships *store.MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := loadPortfolio(c, portfolios, "id", policy.CanRead)
		if p == nil {
			return
		}
		etfs, err := memberships.EtfsIn(c.Request.Context(), p.ID, policy.ScopeFor(middleware.ActorFrom(c)))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, etfs)
	}
}

// AddPortfolioEtfHandler links an ETF the caller can see into a portfolio the caller can write.
// Both records must exist before access is checked.
func AddPortfolioEtfHandler(portfolios *store.PortfolioStore, etfs *store.EtfStore, memberships *store.MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		portfolioID, ok := pathID(c, "id")
		if !ok {
			return
		}
		etfID, ok := pathID(c, "etfId")
		if !ok {
			return
		}
		p, err := portfolios.FindByID(ctx, portfolioID)
		if err != nil {
			respondError(c, err)
			return
		}
		etf, err := etfs.FindByID(ctx, etfID)
		if err != nil {
			respondError(c, err)
			return
		}
		actor := middleware.ActorFrom(c)
		if err := policy.CanWrite(actor, policy.OfPortfolio(p), apperr.ErrPortfolioNotFound); err != nil {
			respondError(c, err)
			return
		}
		// Linking someone else's private ETF would expose it to the portfolio's readers
		if err := policy.CanRead(actor, policy.OfEtf(etf), apperr.ErrEtfNotFound); err != nil {
			respondError(c, err)
			return
		}
		link, err := memberships.Add(ctx, p.ID, etf.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"portfolio_id": p.ID,     // Target portfolio
			"etf_id":       etf.ID,   // Linked ETF
			"user_id":      actor.ID, // Acting user
		}).Info("ETF added to portfolio")
		c.JSON(http.StatusCreated, link)
	}
}

// RemovePortfolioEtfHandler unlinks an ETF; unlinking a pair that does not exist succeeds
func RemovePortfolioEtfHandler(portfolios *store.PortfolioStore, memberships *store.MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := loadPortfolio(c, portfolios, "id", policy.CanWrite)
		if p == nil {
			return
		}
		etfID, ok := pathID(c, "etfId")
		if !ok {
			return
		}
		if err := memberships.Remove(c.Request.Context(), p.ID, etfID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ETF removed from portfolio"})
	}
}
