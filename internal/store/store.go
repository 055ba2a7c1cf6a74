// Package store persists users, ETFs, portfolios and portfolio memberships.
//
// Every store translates driver failures into apperr sentinels so handlers
// never inspect gorm errors directly.
package store

import (
	"errors" // Error inspection
	"fmt"    // Error wrapping

	"gorm.io/gorm" // GORM ORM library
)

// Stores bundles every store over one database handle
type Stores struct {
	Users       *UserStore
	Etfs        *EtfStore
	Portfolios  *PortfolioStore
	Memberships *MembershipStore
}

// New builds all stores on db
func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:       NewUserStore(db),
		Etfs:        NewEtfStore(db),
		Portfolios:  NewPortfolioStore(db),
		Memberships: NewMembershipStore(db),
	}
}

// notFoundOr maps a missing row to notFound and wraps anything else
func notFoundOr(err error, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
