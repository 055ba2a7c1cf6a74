package domain

import "strings" // String manipulation

// Role is the closed set of roles a user can hold
type Role string

const (
	RoleUser  Role = "USER"  // Regular user
	RoleAdmin Role = "ADMIN" // Administrator
)

// authorityPrefix is what the token layer expects in front of a role name
const authorityPrefix = "ROLE_"

// ParseRole converts a raw role string into a Role, reporting whether it is known
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Authority maps a role to the authority name carried in tokens ("ROLE_ADMIN")
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                                   // Primary key
	Username string `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"` // Unique, case-sensitive username
	Password string `gorm:"not null" json:"-"`                                      // Hashed password, never serialized
	Role     Role   `gorm:"type:varchar(16);not null;default:USER" json:"role"`     // USER or ADMIN
}

// IsAdmin reports whether the user holds the ADMIN role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
