package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending:    true,
	OrderProcessing: true,
	OrderShipped:    true,
	OrderDelivered:  true,
	OrderCancelled:  true,
}

// Valid reports whether s belongs to the fixed status enum.
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

type Order struct {
	BaseModel
	AccountID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"account_id"`
	Account         *Account        `json:"account,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null;default:pending" json:"payment_status"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(16);not null;default:pending" json:"order_status"`
	TxRef           *string         `gorm:"uniqueIndex" json:"tx_ref,omitempty"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE;" json:"items"`
}

// OrderItem snapshots the product price at purchase time.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
