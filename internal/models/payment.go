package models

import "github.com/shopspring/decimal"

// Payment is the settled result reported by the gateway, one row per TxRef.
type Payment struct {
	BaseModel
	TxRef     string          `gorm:"column:tx_ref;uniqueIndex;not null" json:"tx_ref"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Charge    decimal.Decimal `gorm:"type:numeric(12,2)" json:"charge"`
	Currency  string          `json:"currency"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Method    string          `json:"method"`
	Mode      string          `json:"mode"`
	Type      string          `json:"type"`
}
