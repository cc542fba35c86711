package models

import "time"

const (
	NotificationChannelEmail = "email"
	NotificationChannelPush  = "push"

	NotificationStatusPending   = "pending"
	NotificationStatusSent      = "sent"
	NotificationStatusDelivered = "delivered"
	NotificationStatusFailed    = "failed"
	NotificationStatusRead      = "read"

	NotificationPriorityLow    = "low"
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
)

// MaxDeliveryAttempts is the retry ceiling before a notification is marked
// permanently failed.
const MaxDeliveryAttempts = 3

// Notification is one delivery attempt record per channel.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Channel   string    `json:"channel" gorm:"not null"`
	Category  string    `json:"category" gorm:"not null"`
	Priority  string    `json:"priority" gorm:"not null;default:'normal'"`
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body"`
	Status    string    `json:"status" gorm:"not null;default:'pending'"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
