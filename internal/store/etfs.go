package store

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models
	"etf_tracker/internal/query"  // Listing queries

	"gorm.io/gorm" // GORM ORM library
)

// Columns an ETF update may touch. id and user_id are never written after creation.
var etfMutable = []string{"ticker", "description", "asset_class", "expense_ratio", "is_public"}

// EtfStore persists ETFs
type EtfStore struct {
	db *gorm.DB
}

// NewEtfStore creates an EtfStore
func NewEtfStore(db *gorm.DB) *EtfStore {
	return &EtfStore{db: db}
}

// Create inserts e with a fresh id; the caller sets the owner
func (s *EtfStore) Create(ctx context.Context, e *domain.Etf) error {
	e.ID = 0 // Ignore client supplied ids
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create etf: %w", err)
	}
	return nil
}

// FindByID returns the ETF with the given id
func (s *EtfStore) FindByID(ctx context.Context, id uint) (*domain.Etf, error) {
	var e domain.Etf
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.ErrEtfNotFound, "find etf")
	}
	return &e, nil
}

// Update overwrites the mutable fields of ETF id with those of in and returns
// the stored row. in.ID and in.UserID are ignored.
func (s *EtfStore) Update(ctx context.Context, id uint, in domain.Etf) (*domain.Etf, error) {
	var out domain.Etf
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			return notFoundOr(err, apperr.ErrEtfNotFound, "load etf")
		}
		if err := tx.Model(&out).Select(etfMutable).Updates(domain.Etf{
			Ticker:       in.Ticker,
			Description:  in.Description,
			AssetClass:   in.AssetClass,
			ExpenseRatio: in.ExpenseRatio,
			IsPublic:     in.IsPublic,
		}).Error; err != nil {
			return fmt.Errorf("update etf: %w", err)
		}
		return tx.First(&out, id).Error // Reload what was stored
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns ETFs in scope matching the search, sorted as requested
func (s *EtfStore) List(ctx context.Context, p query.Params) ([]domain.Etf, error) {
	etfs := []domain.Etf{}
	if err := query.Etfs.Apply(s.db.WithContext(ctx).Model(&domain.Etf{}), p).Find(&etfs).Error; err != nil {
		return nil, fmt.Errorf("list etfs: %w", err)
	}
	return etfs, nil
}

// Delete removes an ETF and every membership referencing it. Portfolios stay.
func (s *EtfStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e domain.Etf
		if err := tx.First(&e, id).Error; err != nil {
			return notFoundOr(err, apperr.ErrEtfNotFound, "load etf")
		}
		if err := tx.Where("etf_id = ?", id).Delete(&domain.PortfolioEtf{}).Error; err != nil {
			return fmt.Errorf("delete etf memberships: %w", err)
		}
		if err := tx.Delete(&e).Error; err != nil {
			return fmt.Errorf("delete etf: %w", err)
		}
		return nil
	})
}
