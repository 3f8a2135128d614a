package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio is the optional balance summary of a user. At most one row per user.
type Portfolio struct {
	gorm.Model
	UserID         uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"current_balance"`
}
