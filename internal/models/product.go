package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus tracks catalog review.
type ProductStatus string

const (
	ProductPending  ProductStatus = "pending"
	ProductApproved ProductStatus = "approved"
	ProductRejected ProductStatus = "rejected"
)

type Product struct {
	BaseModel
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Status      ProductStatus   `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	AddedByID   *uuid.UUID      `gorm:"type:uuid" json:"added_by_id"`
}
