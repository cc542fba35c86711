package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusDisputed  = "disputed"
)

// Payment tracks one payment-intent attempt. The intent id is the correlation
// key between the local row and Stripe's webhook events.
type Payment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"not null;index"`
	PackageID       uint      `json:"package_id" gorm:"not null"`
	PaymentIntentID string    `json:"payment_intent_id" gorm:"unique;not null"`
	Amount          int64     `json:"amount" gorm:"not null"` // cents
	Currency        string    `json:"currency" gorm:"not null"`
	Tokens          int       `json:"tokens" gorm:"not null"` // credit owed on success
	Status          string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type PaymentIntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Tokens          int    `json:"tokens"`
}
