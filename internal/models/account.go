package models

// Account is a customer or staff identity. Accounts are never hard-deleted.
type Account struct {
	BaseModel
	Name             string  `json:"name"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone            string  `gorm:"index" json:"phone"`
	PasswordHash     string  `gorm:"not null" json:"-"`
	Role             Role    `gorm:"type:varchar(16);not null;default:customer" json:"role"`
	IsActive         bool    `gorm:"not null;default:true" json:"is_active"`
	IsVerified       bool    `gorm:"not null;default:false" json:"is_verified"`
	TwoFactorEnabled bool    `gorm:"not null;default:false" json:"two_factor_enabled"`
	Orders           []Order `json:"orders,omitempty"`
}

// ContactAddress is where notifications for the account are delivered:
// the phone when known, otherwise the email.
func (a *Account) ContactAddress() string {
	if a.Phone != "" {
		return a.Phone
	}
	return a.Email
}
