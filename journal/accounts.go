package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trade-journal/models"
)

// ErrEmailTaken is returned when signing up with an address that is already registered.
var ErrEmailTaken = errors.New("email already exists")

// CreateAccount registers user. A portfolio is created alongside only when
// an opening balance is given.
func (s *Store) CreateAccount(ctx context.Context, user *models.User, openingBalance *decimal.Decimal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", user.Email).First(&existing).Error
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if openingBalance == nil {
			return nil
		}
		portfolio := models.Portfolio{UserID: user.ID, CurrentBalance: *openingBalance}
		if err := tx.Create(&portfolio).Error; err != nil {
			return fmt.Errorf("create portfolio: %w", err)
		}
		return nil
	})
}

// FindUserByEmail looks up a user for login.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
