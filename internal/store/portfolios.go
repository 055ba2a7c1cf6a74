package store

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models
	"etf_tracker/internal/query"  // Listing queries

	"gorm.io/gorm" // GORM ORM library
)

var portfolioMutable = []string{"name", "is_public"}

// PortfolioStore persists portfolios
type PortfolioStore struct {
	db *gorm.DB
}

// NewPortfolioStore creates a PortfolioStore
func NewPortfolioStore(db *gorm.DB) *PortfolioStore {
	return &PortfolioStore{db: db}
}

// Create inserts p with a fresh id; the caller sets the owner
func (s *PortfolioStore) Create(ctx context.Context, p *domain.Portfolio) error {
	p.ID = 0
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create portfolio: %w", err)
	}
	return nil
}

// FindByID returns the portfolio with the given id
func (s *PortfolioStore) FindByID(ctx context.Context, id uint) (*domain.Portfolio, error) {
	var p domain.Portfolio
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.ErrPortfolioNotFound, "find portfolio")
	}
	return &p, nil
}

// Update overwrites name and visibility of portfolio id and returns the stored row
func (s *PortfolioStore) Update(ctx context.Context, id uint, in domain.Portfolio) (*domain.Portfolio, error) {
	var out domain.Portfolio
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			return notFoundOr(err, apperr.ErrPortfolioNotFound, "load portfolio")
		}
		err := tx.Model(&out).Select(portfolioMutable).Updates(domain.Portfolio{Name: in.Name, IsPublic: in.IsPublic}).Error
		if err != nil {
			return fmt.Errorf("update portfolio: %w", err)
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns portfolios in scope matching the search, sorted as requested
func (s *PortfolioStore) List(ctx context.Context, p query.Params) ([]domain.Portfolio, error) {
	out := []domain.Portfolio{}
	if err := query.Portfolios.Apply(s.db.WithContext(ctx).Model(&domain.Portfolio{}), p).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	return out, nil
}

// Delete removes a portfolio and its memberships; the member ETFs are kept
func (s *PortfolioStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Portfolio
		if err := tx.First(&p, id).Error; err != nil {
			return notFoundOr(err, apperr.ErrPortfolioNotFound, "load portfolio")
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&domain.PortfolioEtf{}).Error; err != nil {
			return fmt.Errorf("delete portfolio memberships: %w", err)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("delete portfolio: %w", err)
		}
		return nil
	})
}
