package models

import "gorm.io/gorm"

// Strategy is a named trading approach a user can tag trades with.
type Strategy struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
