package repository

import "errors"

var (
	// ErrInsufficientTokens is returned when a debit would take the cached
	// balance below zero. Nothing is written when it fires.
	ErrInsufficientTokens = errors.New("insufficient token balance")

	// ErrPaymentAlreadyProcessed is returned when a settle attempt finds the
	// payment no longer pending. The guarded update makes the credit
	// exactly-once even when the confirm endpoint and the webhook race.
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
)
