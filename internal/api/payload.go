package api

import (
	"errors"  // Error inspection
	"io"      // Empty body detection
	"strings" // String manipulation

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/jellydator/validation" // Payload validation
	"github.com/shopspring/decimal"    // Exact decimal arithmetic
)

// Request struct for registration and login
type CredentialsRequest struct {
	Username string `json:"username"` // Username must be provided
	Password string `json:"password"` // Password must be provided
}

func (r CredentialsRequest) Validate() error {
	return firstInvalid(
		validation.Validate(r.Username, notBlank("Username is required")),
		validation.Validate(r.Password, notBlank("Password is required")),
	)
}

// Request struct for changing one's own username
type ProfileRequest struct {
	Username string `json:"username"` // New username
}

func (r ProfileRequest) Validate() error {
	return firstInvalid(validation.Validate(r.Username, notBlank("Username is required")))
}

// Request struct for changing one's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"` // Must match the stored hash
	NewPassword     string `json:"newPassword"`     // Replacement password
}

func (r ChangePasswordRequest) Validate() error {
	return firstInvalid(
		validation.Validate(r.CurrentPassword, notBlank("Current password is required")),
		validation.Validate(r.NewPassword, notBlank("New password is required")),
	)
}

// Request struct for an admin creating a user
type CreateUserRequest struct {
	Username string `json:"username"` // Username must be provided
	Password string `json:"password"` // Password must be provided
	Role     string `json:"role"`     // USER or ADMIN
}

func (r CreateUserRequest) Validate() error {
	return firstInvalid(
		validation.Validate(r.Username, notBlank("Username is required")),
		validation.Validate(r.Password, notBlank("Password is required")),
		validation.Validate(r.Role, notBlank("Role is required"), knownRole),
	)
}

// Request struct for an admin updating a user; a blank NewPassword keeps the old one
type UpdateUserRequest struct {
	Username    string `json:"username"`    // Username must be provided
	Role        string `json:"role"`        // USER or ADMIN
	NewPassword string `json:"newPassword"` // Optional password reset
}

func (r UpdateUserRequest) Validate() error {
	return firstInvalid(
		validation.Validate(r.Username, notBlank("Username is required")),
		validation.Validate(r.Role, notBlank("Role is required"), knownRole),
	)
}

// Request struct for creating or updating an ETF. Owner and id are not accepted from clients.
type EtfRequest struct {
	Ticker       string          `json:"ticker"`       // Exchange ticker
	Description  string          `json:"description"`  // Free text
	AssetClass   string          `json:"assetClass"`   // Equity, bond, ...
	ExpenseRatio decimal.Decimal `json:"expenseRatio"` // Annual expense ratio in percent
	IsPublic     bool            `json:"isPublic"`     // Visible to everyone when true
}

func (r EtfRequest) Validate() error {
	return firstInvalid(
		validation.Validate(r.Ticker, notBlank("Ticker is required")),
		validation.Validate(r.ExpenseRatio, validation.By(func(any) error {
			if r.ExpenseRatio.IsNegative() {
				return errors.New("Expense ratio must not be negative")
			}
			return nil
		})),
	)
}

// Etf converts the request into a model without id or owner
func (r EtfRequest) Etf() domain.Etf {
	return domain.Etf{
		Ticker:       strings.TrimSpace(r.Ticker),
		Description:  r.Description,
		AssetClass:   r.AssetClass,
		ExpenseRatio: r.ExpenseRatio,
		IsPublic:     r.IsPublic,
	}
}

// Request struct for creating or updating a portfolio
type PortfolioRequest struct {
	Name     string `json:"name"`     // Display name
	IsPublic bool   `json:"isPublic"` // Visible to everyone when true
}

func (r PortfolioRequest) Validate() error {
	return firstInvalid(validation.Validate(r.Name, notBlank("Name is required")))
}

// Portfolio converts the request into a model without id or owner
func (r PortfolioRequest) Portfolio() domain.Portfolio {
	return domain.Portfolio{Name: strings.TrimSpace(r.Name), IsPublic: r.IsPublic}
}

// notBlank rejects empty and whitespace-only strings with msg
func notBlank(msg string) validation.Rule {
	return validation.By(func(v any) error {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	})
}

// knownRole rejects anything but USER and ADMIN
var knownRole = validation.By(func(v any) error {
	s, _ := v.(string)
	if _, ok := domain.ParseRole(s); !ok {
		return errors.New("Role must be USER or ADMIN")
	}
	return nil
})

// firstInvalid returns the first failed check as a validation error
func firstInvalid(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return apperr.Validation(err.Error())
		}
	}
	return nil
}

// bindJSON decodes the request body into req and validates it
func bindJSON(c *gin.Context, req validation.Validatable) error {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid request")
	}
	return req.Validate()
}
