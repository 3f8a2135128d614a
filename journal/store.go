package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-journal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Store is the owner-scoped persistence layer of the journal.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on top of db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListTrades returns every trade of userID in the given order.
// Ties are broken by id so the result is stable.
func (s *Store) ListTrades(ctx context.Context, userID uint, sort Sort) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Preload("Strategy").
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Column}, Desc: sort.Desc}).
		Order("id").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}

// GetTrade loads a single trade owned by userID.
func (s *Store) GetTrade(ctx context.Context, userID, tradeID uint) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.WithContext(ctx).
		Preload("Strategy").
		Where("id = ? AND user_id = ?", tradeID, userID).
		First(&trade).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &trade, nil
}

// CreateTrade inserts trade. The caller sets UserID.
func (s *Store) CreateTrade(ctx context.Context, trade *models.Trade) error {
	if err := s.db.WithContext(ctx).Omit("Strategy").Create(trade).Error; err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

// UpdateTrade saves every editable column of trade, including nil pnl and strategy.
func (s *Store) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	err := s.db.WithContext(ctx).
		Model(trade).
		Omit(clause.Associations).
		Select("StrategyID", "Symbol", "EntryDate", "Status", "EntryPrice", "Quantity", "PnL", "Notes").
		Updates(trade).Error
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	return nil
}

// DeleteTrade removes the trade and its images, returning the stored image
// paths so the caller can clean up the files.
func (s *Store) DeleteTrade(ctx context.Context, trade *models.Trade) ([]string, error) {
	var paths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var images []models.TradeImage
		if err := tx.Where("trade_id = ?", trade.ID).Find(&images).Error; err != nil {
			return err
		}
		for _, img := range images {
			paths = append(paths, img.Path)
		}
		if err := tx.Where("trade_id = ?", trade.ID).Delete(&models.TradeImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Trade{}, trade.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete trade %d: %w", trade.ID, err)
	}
	return paths, nil
}

// FindPortfolio returns the user's portfolio, or nil when the user has none.
func (s *Store) FindPortfolio(ctx context.Context, userID uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	return &portfolio, nil
}

// SetBalance stores the user's current balance, creating the portfolio on first use.
func (s *Store) SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&portfolio).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			portfolio = models.Portfolio{UserID: userID, CurrentBalance: balance}
			return tx.Create(&portfolio).Error
		case err != nil:
			return err
		}
		portfolio.CurrentBalance = balance
		return tx.Model(&portfolio).Update("current_balance", balance).Error
	})
	if err != nil {
		return nil, fmt.Errorf("set balance: %w", err)
	}
	return &portfolio, nil
}

// ListStrategies returns the user's strategies by name.
func (s *Store) ListStrategies(ctx context.Context, userID uint) ([]models.Strategy, error) {
	var strategies []models.Strategy
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Order("id").Find(&strategies).Error
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	return strategies, nil
}

// GetStrategy loads a strategy owned by userID.
func (s *Store) GetStrategy(ctx context.Context, userID, strategyID uint) (*models.Strategy, error) {
	var strategy models.Strategy
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", strategyID, userID).First(&strategy).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &strategy, nil
}

func (s *Store) CreateStrategy(ctx context.Context, strategy *models.Strategy) error {
	if err := s.db.WithContext(ctx).Create(strategy).Error; err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	return nil
}

func (s *Store) CreateImage(ctx context.Context, image *models.TradeImage) error {
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("create trade image: %w", err)
	}
	return nil
}

// ListImages returns the images of a trade, newest first.
func (s *Store) ListImages(ctx context.Context, tradeID uint) ([]models.TradeImage, error) {
	var images []models.TradeImage
	err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at desc").
		Order("id desc").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list trade images: %w", err)
	}
	return images, nil
}

// GetImage loads an image only if it is attached to tradeID.
func (s *Store) GetImage(ctx context.Context, tradeID, imageID uint) (*models.TradeImage, error) {
	var image models.TradeImage
	err := s.db.WithContext(ctx).Where("id = ? AND trade_id = ?", imageID, tradeID).First(&image).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &image, nil
}

func (s *Store) DeleteImage(ctx context.Context, image *models.TradeImage) error {
	if err := s.db.WithContext(ctx).Delete(image).Error; err != nil {
		return fmt.Errorf("delete trade image %d: %w", image.ID, err)
	}
	return nil
}
