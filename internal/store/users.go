package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // String manipulation

	"etf_tracker/internal/apperr" // Error taxonomy
	"etf_tracker/internal/domain" // Domain models
	"etf_tracker/internal/query"  // Listing queries

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// UserStore persists user accounts and their password hashes
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. Any supplied id is ignored and the username is trimmed.
func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	u.ID = 0                                   // Always a fresh row
	u.Username = strings.TrimSpace(u.Username) // Stored trimmed
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := usernameTaken(tx, u.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrUsernameTaken
		}
		if err := tx.Create(u).Error; err != nil {
			// Lost a race with a concurrent insert
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrUsernameTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

// FindByID returns the user with the given id
func (s *UserStore) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.ErrUserNotFound, "find user")
	}
	return &u, nil
}

// FindByUsername returns the user with exactly this username
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		return nil, notFoundOr(err, apperr.ErrUserNotFound, "find user by username")
	}
	return &u, nil
}

// UsernameTaken reports whether another user than excludeID holds username
func (s *UserStore) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return usernameTaken(s.db.WithContext(ctx), strings.TrimSpace(username), excludeID)
}

func usernameTaken(db *gorm.DB, username string, excludeID uint) (bool, error) {
	var count int64
	q := db.Model(&domain.User{}).Where("username = ?", username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

// List returns users matching the search, sorted as requested
func (s *UserStore) List(ctx context.Context, p query.Params) ([]domain.User, error) {
	users := []domain.User{}
	if err := query.Users.Apply(s.db.WithContext(ctx).Model(&domain.User{}), p).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile writes username and role of u.ID and refreshes u from the stored row.
// The password hash is left alone; see SetPasswordHash.
func (s *UserStore) UpdateProfile(ctx context.Context, u *domain.User) error {
	return s.UpdateAccount(ctx, u, "")
}

// UpdateAccount writes username and role of u.ID and, when passwordHash is
// not empty, the password hash too, all in one transaction. u is refreshed
// from the stored row.
func (s *UserStore) UpdateAccount(ctx context.Context, u *domain.User, passwordHash string) error {
	u.Username = strings.TrimSpace(u.Username)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.User
		if err := tx.First(&existing, u.ID).Error; err != nil {
			return notFoundOr(err, apperr.ErrUserNotFound, "load user")
		}
		taken, err := usernameTaken(tx, u.Username, u.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrUsernameTaken
		}
		err = tx.Model(&existing).Select("username", "role").Updates(domain.User{Username: u.Username, Role: u.Role}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrUsernameTaken
			}
			return fmt.Errorf("update user: %w", err)
		}
		if passwordHash != "" {
			if err := tx.Model(&existing).Update("password", passwordHash).Error; err != nil {
				return fmt.Errorf("set password: %w", err)
			}
		}
		if err := tx.First(u, u.ID).Error; err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		return nil
	})
	if err == nil && passwordHash != "" {
		logrus.WithField("user_id", u.ID).Info("Password changed")
	}
	return err
}

// SetPasswordHash replaces the stored password hash of a user
func (s *UserStore) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return fmt.Errorf("set password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	logrus.WithField("user_id", id).Info("Password changed")
	return nil
}

// Delete removes a user together with the user's portfolios, ETFs and any
// memberships touching them
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.First(&u, id).Error; err != nil {
			return notFoundOr(err, apperr.ErrUserNotFound, "load user")
		}
		owned := func(model any) *gorm.DB {
			return tx.Model(model).Select("id").Where("user_id = ?", id)
		}
		// Memberships of the user's portfolios, or pointing at the user's ETFs
		err := tx.Where("portfolio_id IN (?) OR etf_id IN (?)", owned(&domain.Portfolio{}), owned(&domain.Etf{})).
			Delete(&domain.PortfolioEtf{}).Error
		if err != nil {
			return fmt.Errorf("delete user memberships: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Portfolio{}).Error; err != nil {
			return fmt.Errorf("delete user portfolios: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Etf{}).Error; err != nil {
			return fmt.Errorf("delete user etfs: %w", err)
		}
		if err := tx.Delete(&u).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
