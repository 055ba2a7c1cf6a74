// Package policy decides who may read or change which record.
//
// Every function here is pure: callers load the actor and the resource,
// ask the policy, and translate the returned error into a response.
package policy

import (
	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models
)

// Actor is the authenticated principal making a request
type Actor struct {
	ID   uint
	Role domain.Role
}

// ActorFrom builds an actor from a stored user
func ActorFrom(u domain.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the actor holds the ADMIN role
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// Resource is the ownership view of an ETF or portfolio
type Resource struct {
	OwnerID  uint
	IsPublic bool
}

// OfEtf returns the ownership view of an ETF, or nil when e is nil
func OfEtf(e *domain.Etf) *Resource {
	if e == nil {
		return nil
	}
	return &Resource{OwnerID: e.UserID, IsPublic: e.IsPublic}
}

// OfPortfolio returns the ownership view of a portfolio, or nil when p is nil
func OfPortfolio(p *domain.Portfolio) *Resource {
	if p == nil {
		return nil
	}
	return &Resource{OwnerID: p.UserID, IsPublic: p.IsPublic}
}

// CanRead allows admins, owners and anyone when the resource is public.
// A nil resource yields notFound.
func CanRead(actor Actor, res *Resource, notFound error) error {
	if res == nil {
		return notFound
	}
	if actor.IsAdmin() || actor.ID == res.OwnerID || res.IsPublic {
		return nil
	}
	return apperr.ErrAccessDenied
}

// CanWrite allows admins and owners only; public visibility never grants write.
// A nil resource yields notFound.
func CanWrite(actor Actor, res *Resource, notFound error) error {
	if res == nil {
		return notFound
	}
	if actor.IsAdmin() || actor.ID == res.OwnerID {
		return nil
	}
	return apperr.ErrAccessDenied
}

// RequireAdmin rejects non-admin actors
func RequireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

// CanDeleteUser rejects an actor deleting their own account, whatever the role
func CanDeleteUser(actor Actor, targetID uint) error {
	if actor.ID == targetID {
		return apperr.ErrSelfDelete
	}
	return nil
}

// Scope restricts listings. All is set for admins; otherwise rows owned by
// UserID or marked public are visible.
type Scope struct {
	All    bool
	UserID uint
}

// ScopeFor returns the listing scope of an actor
func ScopeFor(actor Actor) Scope {
	if actor.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: actor.ID}
}

// Allows reports whether a row with the given owner and visibility is in scope
func (s Scope) Allows(ownerID uint, isPublic bool) bool {
	return s.All || ownerID == s.UserID || isPublic
}
