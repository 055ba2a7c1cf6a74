package api

import (
	"net/http" // HTTP status codes

	"etf_tracker/internal/domain"     // Domain models
	"etf_tracker/internal/middleware" // Request state set by middleware
	"etf_tracker/internal/policy"     // Authorization policy
	"etf_tracker/internal/query"      // Listing parameters
	"etf_tracker/internal/store"      // Persistence

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// listParams reads search, sortBy and sortDirection from the query string
func listParams(c *gin.Context) query.Params {
	return query.Params{
		Scope:         policy.ScopeFor(middleware.ActorFrom(c)), // Who is asking
		Search:        c.Query("search"),                        // Free text filter
		SortBy:        c.Query("sortBy"),                        // Sort key
		SortDirection: c.Query("sortDirection"),                 // asc or desc
	}
}

// ListUsersHandler returns all users matching the optional search, sorted as requested
func ListUsersHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.List(c.Request.Context(), listParams(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetUserHandler returns a single user
func GetUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateUserHandler lets an admin create an account with any role
func CreateUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		role, _ := domain.ParseRole(req.Role) // Already validated
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}
		user := domain.User{Username: req.Username, Password: string(hash), Role: role}
		if err := users.Create(c.Request.Context(), &user); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"admin_id": middleware.ActorFrom(c).ID, // Acting admin
			"user_id":  user.ID,                    // New user ID
			"role":     user.Role,                  // Granted role
		}).Info("User created by admin")
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUserHandler changes username and role, and resets the password when one is given
func UpdateUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req UpdateUserRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		role, _ := domain.ParseRole(req.Role)
		user := domain.User{ID: id, Username: req.Username, Role: role}
		var hash []byte
		if req.NewPassword != "" {
			var err error
			if hash, err = bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost); err != nil {
				respondError(c, err)
				return
			}
		}
		// Profile and password change together or not at all
		if err := users.UpdateAccount(c.Request.Context(), &user, string(hash)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user and everything the user owns. Admins cannot delete themselves.
func DeleteUserHandler(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		actor := middleware.ActorFrom(c)
		if err := policy.CanDeleteUser(actor, id); err != nil {
			respondError(c, err)
			return
		}
		if err := users.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"admin_id": actor.ID, // Acting admin
			"user_id":  id,       // Deleted user
		}).Info("User deleted")
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
