package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models
	"etf_tracker/internal/policy" // Listing scope
	"etf_tracker/internal/query"  // Listing queries

	"gorm.io/gorm" // GORM ORM library
)

// MembershipStore links ETFs to portfolios
type MembershipStore struct {
	db *gorm.DB
}

// NewMembershipStore creates a MembershipStore
func NewMembershipStore(db *gorm.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// Add links etfID to portfolioID. A pair that already exists is a conflict.
func (s *MembershipStore) Add(ctx context.Context, portfolioID, etfID uint) (*domain.PortfolioEtf, error) {
	link := domain.PortfolioEtf{PortfolioID: portfolioID, EtfID: etfID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := membershipExists(tx, portfolioID, etfID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrAlreadyInPortfolio
		}
		if err := tx.Create(&link).Error; err != nil {
			// The unique index catches a concurrent add of the same pair
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrAlreadyInPortfolio
			}
			return fmt.Errorf("add membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Remove unlinks etfID from portfolioID; removing a missing pair does nothing
func (s *MembershipStore) Remove(ctx context.Context, portfolioID, etfID uint) error {
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ? AND etf_id = ?", portfolioID, etfID).
		Delete(&domain.PortfolioEtf{}).Error
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	return nil
}

// Exists reports whether the pair is linked
func (s *MembershipStore) Exists(ctx context.Context, portfolioID, etfID uint) (bool, error) {
	return membershipExists(s.db.WithContext(ctx), portfolioID, etfID)
}

func membershipExists(db *gorm.DB, portfolioID, etfID uint) (bool, error) {
	var count int64
	err := db.Model(&domain.PortfolioEtf{}).
		Where("portfolio_id = ? AND etf_id = ?", portfolioID, etfID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

// EtfsIn returns the ETFs linked to a portfolio that are visible in scope,
// ordered by ticker. Linked ETFs private to someone else are left out.
func (s *MembershipStore) EtfsIn(ctx context.Context, portfolioID uint, scope policy.Scope) ([]domain.Etf, error) {
	etfs := []domain.Etf{}
	q := s.db.WithContext(ctx).
		Joins("JOIN portfolio_etfs ON portfolio_etfs.etf_id = etfs.id").
		Where("portfolio_etfs.portfolio_id = ?", portfolioID)
	err := query.Etfs.Restrict(q, scope, "etfs").
		Order("etfs.ticker").Order("etfs.id").
		Find(&etfs).Error
	if err != nil {
		return nil, fmt.Errorf("list portfolio etfs: %w", err)
	}
	return etfs, nil
}
