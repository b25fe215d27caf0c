package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog product in the store.
type Product struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	CategoryID       *string          `json:"category_id" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	Category         *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Name             string           `json:"name" validate:"required,min=2,max=255"`
	Slug             string           `json:"slug" gorm:"uniqueIndex;type:varchar(255)"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description" validate:"omitempty,max=500"`
	Price            decimal.Decimal  `json:"price" gorm:"type:decimal(10,2)"`
	ComparePrice     *decimal.Decimal `json:"compare_price" gorm:"type:decimal(10,2)"`
	SKU              string           `json:"sku" gorm:"column:sku;type:varchar(255)"`
	Barcode          string           `json:"barcode" gorm:"type:varchar(255)"`
	Quantity         int              `json:"quantity" validate:"gte=0"`
	IsActive         bool             `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	Images           []string         `json:"images" gorm:"serializer:json"`
	Sizes            []string         `json:"sizes" gorm:"serializer:json"`
	Colors           []string         `json:"colors" gorm:"serializer:json"`
	SortOrder        int              `json:"sort_order"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `json:"-" gorm:"index"`
}

// InStock reports whether any stock remains.
func (p *Product) InStock() bool {
	return p.Quantity > 0
}

// OnSale reports whether the compare-at price exceeds the current price.
func (p *Product) OnSale() bool {
	return p.ComparePrice != nil && p.ComparePrice.GreaterThan(p.Price)
}
