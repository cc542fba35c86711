package repository

import (
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// applyLedgerEntry mutates the cached balance and appends the ledger row
// inside the caller's transaction. The user row is locked first so concurrent
// debits cannot race past the balance check. Shared with the payment
// settlement path.
func applyLedgerEntry(tx *gorm.DB, entry *models.TokenTransaction) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, entry.UserID).Error; err != nil {
		return err
	}

	newBalance := user.Tokens + entry.Amount
	if newBalance < 0 {
		return ErrInsufficientTokens
	}

	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("tokens", newBalance).Error; err != nil {
		return err
	}

	entry.BalanceAfter = newBalance
	return tx.Create(entry).Error
}

// Apply writes one balance change and its ledger entry atomically.
func (r *TokenRepository) Apply(entry *models.TokenTransaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return applyLedgerEntry(tx, entry)
	})
}

func (r *TokenRepository) GetUserTransactions(userID uint, page, limit int) ([]models.TokenTransaction, int64, error) {
	var transactions []models.TokenTransaction
	var total int64

	if err := r.db.Model(&models.TokenTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&transactions).Error
	return transactions, total, err
}

// SumAmounts returns the ledger sum for a user; it must equal the cached
// balance on the user row.
func (r *TokenRepository) SumAmounts(userID uint) (int, error) {
	var sum *int
	err := r.db.Model(&models.TokenTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

// TotalByType sums all ledger amounts of one type across users, for the admin
// dashboard.
func (r *TokenRepository) TotalByType(transactionType string) (int64, error) {
	var sum *int64
	err := r.db.Model(&models.TokenTransaction{}).
		Where("type = ?", transactionType).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}
