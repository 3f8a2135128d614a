package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"trade-journal/models"
)

const (
	DemoEmail    = "demo@journal.local"
	DemoPassword = "demo-password"
)

// Seed inserts a demo account with a portfolio, strategies and a handful of
// trades. It reports false when the demo account already exists.
func Seed(db *gorm.DB, now time.Time) (bool, error) {
	var existing models.User
	err := db.Where("email = ?", DemoEmail).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("check demo user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash demo password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: DemoEmail, Password: string(hashed)}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}

		portfolio := models.Portfolio{UserID: user.ID, CurrentBalance: decimal.RequireFromString("25000.00")}
		if err := tx.Create(&portfolio).Error; err != nil {
			return fmt.Errorf("create demo portfolio: %w", err)
		}

		strategies := []models.Strategy{
			{UserID: user.ID, Name: "Breakout", Description: "Buy strength above a multi-week range."},
			{UserID: user.ID, Name: "Mean reversion", Description: "Fade extended moves back to the 20-day average."},
		}
		if err := CreateInBatches(tx, strategies, 50); err != nil {
			return err
		}

		if err := CreateInBatches(tx, sampleTrades(user.ID, strategies, now), 50); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func sampleTrades(userID uint, strategies []models.Strategy, now time.Time) []models.Trade {
	pnl := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	breakout, reversion := strategies[0].ID, strategies[1].ID

	return []models.Trade{
		{
			UserID: userID, StrategyID: &breakout, Symbol: "AAPL",
			EntryDate: now.AddDate(0, 0, -30), Status: models.StatusClosed,
			EntryPrice: decimal.RequireFromString("180.50"), Quantity: decimal.NewFromInt(50),
			PnL: pnl("612.40"), Notes: "Earnings gap held the pre-market range.",
		},
		{
			UserID: userID, StrategyID: &reversion, Symbol: "TSLA",
			EntryDate: now.AddDate(0, 0, -21), Status: models.StatusClosed,
			EntryPrice: decimal.RequireFromString("242.10"), Quantity: decimal.NewFromInt(20),
			PnL: pnl("-188.00"), Notes: "Stopped out, trend kept going.",
		},
		{
			UserID: userID, StrategyID: &breakout, Symbol: "MSFT",
			EntryDate: now.AddDate(0, 0, -12), Status: models.StatusClosed,
			EntryPrice: decimal.RequireFromString("411.00"), Quantity: decimal.NewFromInt(10),
			PnL: pnl("0"),
		},
		{
			UserID: userID, Symbol: "NVDA",
			EntryDate: now.AddDate(0, 0, -3), Status: models.StatusOpen,
			EntryPrice: decimal.RequireFromString("118.75"), Quantity: decimal.NewFromInt(40),
		},
	}
}
