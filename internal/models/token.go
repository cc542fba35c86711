package models

import "time"

const (
	TransactionTypePurchase        = "purchase"
	TransactionTypeSpend           = "spend"
	TransactionTypeRefund          = "refund"
	TransactionTypeBonus           = "bonus"
	TransactionTypeExpired         = "expired"
	TransactionTypeAdminAdjustment = "admin_adjustment"
)

// TokenTransaction is an append-only ledger entry. Positive amounts credit the
// user, negative amounts debit. Rows are never updated after creation.
type TokenTransaction struct {
	ID           uint                   `json:"id" gorm:"primaryKey"`
	UserID       uint                   `json:"user_id" gorm:"not null;index"`
	Amount       int                    `json:"amount" gorm:"not null"`
	Type         string                 `json:"type" gorm:"not null"`
	Category     string                 `json:"category"`
	BalanceAfter int                    `json:"balance_after" gorm:"not null"`
	PaymentID    *uint                  `json:"payment_id,omitempty"`
	PackageID    *uint                  `json:"package_id,omitempty"`
	Description  string                 `json:"description" gorm:"not null"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time              `json:"created_at"`
}

type TokenBalanceResponse struct {
	Tokens int `json:"tokens"`
}
