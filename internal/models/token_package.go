package models

import "time"

type TokenPackage struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name" gorm:"not null"`
	Description        string     `json:"description"`
	Tokens             int        `json:"tokens" gorm:"not null"`
	BonusTokens        int        `json:"bonus_tokens" gorm:"not null;default:0"`
	Price              float64    `json:"price" gorm:"not null"`
	DiscountPercentage float64    `json:"discount_percentage" gorm:"not null;default:0"`
	Currency           string     `json:"currency" gorm:"not null;default:'usd'"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	MaxPurchases       int        `json:"max_purchases" gorm:"not null;default:0"` // 0 = unlimited
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FinalPrice applies the package discount to the list price.
func (p *TokenPackage) FinalPrice() float64 {
	return p.Price * (1 - p.DiscountPercentage/100)
}

// TotalTokens is the credit granted per purchase, bonus included.
func (p *TokenPackage) TotalTokens() int {
	return p.Tokens + p.BonusTokens
}

func (p *TokenPackage) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

type CreateTokenPackageRequest struct {
	Name               string     `json:"name" validate:"required"`
	Description        string     `json:"description"`
	Tokens             int        `json:"tokens" validate:"required,gt=0"`
	BonusTokens        int        `json:"bonus_tokens" validate:"gte=0"`
	Price              float64    `json:"price" validate:"required,gt=0"`
	DiscountPercentage float64    `json:"discount_percentage" validate:"gte=0,lte=100"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxPurchases       int        `json:"max_purchases" validate:"gte=0"`
}

type UpdateTokenPackageRequest struct {
	Name               *string    `json:"name"`
	Description        *string    `json:"description"`
	Price              *float64   `json:"price"`
	DiscountPercentage *float64   `json:"discount_percentage"`
	IsActive           *bool      `json:"is_active"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxPurchases       *int       `json:"max_purchases"`
}
