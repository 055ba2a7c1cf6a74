package api

import (
	"net/http"      // HTTP status codes
	"os"            // Static file lookup
	"path"          // URL path cleaning
	"path/filepath" // File system paths
	"strings"       // String manipulation

	"etf_tracker/internal/middleware" // Auth, CORS and admin middleware
	"etf_tracker/internal/store"      // Persistence
	"etf_tracker/internal/utils"      // Session utilities

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal JSON encoding
)

func init() {
	// Expense ratios go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Stores     *store.Stores        // Persistence
	Redis      *redis.Client        // Token denylist
	Throttle   *utils.LoginThrottle // Failed login counter
	Tokens     TokenIssuer          // JWT signing
	CORSOrigin string               // Frontend origin
	StaticDir  string               // Built frontend, empty to disable
}

// NewRouter wires every route onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CORSMiddleware(d.CORSOrigin))

	users := d.Stores.Users
	apiGroup := r.Group("/api")

	// Auth routes
	apiGroup.POST("/register", RegisterHandler(users))                      // Registration endpoint
	apiGroup.POST("/auth/login", LoginHandler(users, d.Throttle, d.Tokens)) // Login endpoint

	// Everything below needs a valid token for an existing user
	authed := apiGroup.Group("")
	authed.Use(middleware.JWTAuthMiddleware(d.Tokens.Secret, d.Redis), middleware.ActorMiddleware(users))

	authed.POST("/auth/logout", LogoutHandler(d.Redis))                   // Logout endpoint
	authed.GET("/auth/refresh", RefreshHandler(users, d.Redis, d.Tokens)) // Token refresh endpoint
	authed.GET("/auth/user", CurrentUserHandler(users))                   // Current user endpoint
	authed.PUT("/auth/user", UpdateCurrentUserHandler(users))             // Username change endpoint
	authed.PUT("/auth/change-password", ChangePasswordHandler(users))     // Password change endpoint

	// Admin routes (protected, admin only)
	adminGroup := authed.Group("/auth/users")
	adminGroup.Use(middleware.AdminOnlyMiddleware())
	adminGroup.GET("", ListUsersHandler(users))         // List users endpoint
	adminGroup.GET("/:id", GetUserHandler(users))       // Get user endpoint
	adminGroup.POST("", CreateUserHandler(users))       // Create user endpoint
	adminGroup.PUT("/:id", UpdateUserHandler(users))    // Update user endpoint
	adminGroup.DELETE("/:id", DeleteUserHandler(users)) // Delete user endpoint

	// ETF routes
	etfs := d.Stores.Etfs
	authed.GET("/etfs", ListEtfsHandler(etfs))
	authed.POST("/etfs", CreateEtfHandler(etfs))
	authed.GET("/etfs/:id", GetEtfHandler(etfs))
	authed.PUT("/etfs/:id", UpdateEtfHandler(etfs))
	authed.DELETE("/etfs/:id", DeleteEtfHandler(etfs))

	// Portfolio routes
	portfolios, memberships := d.Stores.Portfolios, d.Stores.Memberships
	authed.GET("/portfolios", ListPortfoliosHandler(portfolios))
	authed.POST("/portfolios", CreatePortfolioHandler(portfolios))
	authed.GET("/portfolios/:id", GetPortfolioHandler(portfolios))
	authed.PUT("/portfolios/:id", UpdatePortfolioHandler(portfolios))
	authed.DELETE("/portfolios/:id", DeletePortfolioHandler(portfolios))
	authed.GET("/portfolios/:id/etfs", PortfolioEtfsHandler(portfolios, memberships))
	authed.POST("/portfolios/:id/etfs/:etfId", AddPortfolioEtfHandler(portfolios, etfs, memberships))
	authed.DELETE("/portfolios/:id/etfs/:etfId", RemovePortfolioEtfHandler(portfolios, memberships))

	registerStatic(r, d.StaticDir)
	return r
}

// registerStatic serves the built frontend. Client side routes get index.html.
func registerStatic(r *gin.Engine, dir string) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
	if dir == "" {
		r.NoRoute(notFound)
		return
	}
	index := filepath.Join(dir, "index.html")
	spa := func(c *gin.Context) { c.File(index) }
	for _, route := range []string{"/", "/etfs", "/etfs/*path", "/portfolios", "/portfolios/*path"} {
		r.GET(route, spa)
	}
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			notFound(c)
			return
		}
		// Cleaning against "/" keeps the lookup inside dir
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}
		notFound(c)
	})
}
