package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderItem is a single line within an order. ProductName, ProductSKU and
// UnitPrice are copies taken at order time and are never resynced with the
// product, so the order history survives later product edits or deletion.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);index"`
	Product     *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku" gorm:"column:product_sku"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2)"`
	Size        *string         `json:"size"`
	Color       *string         `json:"color"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Order represents a customer order.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	UserID          *string         `json:"user_id" gorm:"type:varchar(36);index"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingState   string          `json:"shipping_state"`
	ShippingZip     string          `json:"shipping_zip"`
	ShippingCountry string          `json:"shipping_country"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2)"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(10,2)"`
	Discount        decimal.Decimal `json:"discount" gorm:"type:decimal(10,2)"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(10,2)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);index"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes"`
	Items           []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RecalculateTotal restores the invariant total = subtotal + shipping - discount.
// The total is not floored at zero; a discount larger than subtotal plus
// shipping produces a negative total.
func (o *Order) RecalculateTotal() {
	o.Total = o.Subtotal.Add(o.ShippingCost).Sub(o.Discount)
}

// Deletable reports whether the order may be removed. Only orders that never
// progressed past pending, or were cancelled, can be deleted.
func (o *Order) Deletable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCancelled
}
