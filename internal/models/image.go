package models

import "time"

const (
	ImageStatusGenerating = "generating"
	ImageStatusCompleted  = "completed"
	ImageStatusFailed     = "failed"
)

type Image struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Prompt     string    `json:"prompt" gorm:"not null"`
	Provider   string    `json:"provider" gorm:"not null"`
	Model      string    `json:"model"`
	Size       string    `json:"size" gorm:"not null"`
	Style      string    `json:"style"`
	Quality    string    `json:"quality"`
	Status     string    `json:"status" gorm:"not null;default:'generating'"`
	TokensUsed int       `json:"tokens_used" gorm:"not null"`
	URL        string    `json:"url,omitempty"`
	StorageKey string    `json:"-"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GenerateImageRequest struct {
	Prompt  string `json:"prompt" validate:"required"`
	Size    string `json:"size"`
	Style   string `json:"style"`
	Quality string `json:"quality"`
	Model   string `json:"model"`
}
