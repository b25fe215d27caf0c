package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups products for the storefront navigation.
type Category struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string         `json:"name" validate:"required,min=2,max=255"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;type:varchar(255)"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	IsActive    bool           `json:"is_active"`
	SortOrder   int            `json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
