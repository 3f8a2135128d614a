package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s TradeStatus) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Trade is a single position logged by a user.
// PnL stays nil until the trade is closed and realized.
type Trade struct {
	gorm.Model
	UserID     uint             `gorm:"index;not null" json:"user_id"`
	StrategyID *uint            `gorm:"index" json:"strategy_id,omitempty"`
	Strategy   *Strategy        `json:"strategy,omitempty"`
	Symbol     string           `gorm:"size:20;index;not null" json:"symbol"`
	EntryDate  time.Time        `gorm:"index;not null" json:"entry_date"`
	Status     TradeStatus      `gorm:"size:10;not null;default:OPEN" json:"status"`
	EntryPrice decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"entry_price"`
	Quantity   decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"quantity"`
	PnL        *decimal.Decimal `gorm:"column:pnl;type:numeric(20,8)" json:"pnl"`
	Notes      string           `gorm:"type:text" json:"notes"`
	Images     []TradeImage     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Investment is the capital committed at entry.
func (t Trade) Investment() decimal.Decimal {
	return t.EntryPrice.Mul(t.Quantity)
}

// IsClosed reports whether the trade has been closed.
func (t Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// TradeImage is a chart or screenshot attached to a trade.
// Path is relative to the media root.
type TradeImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TradeID   uint      `gorm:"index;not null" json:"trade_id"`
	Path      string    `gorm:"size:255;not null" json:"-"`
	Caption   string    `gorm:"size:255" json:"caption"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
