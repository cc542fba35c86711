package service

import (
	"errors"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrDescriptionRequired = errors.New("description is required")
)

type tokenLedger interface {
	Apply(entry *models.TokenTransaction) error
	GetUserTransactions(userID uint, page, limit int) ([]models.TokenTransaction, int64, error)
}

type userGetter interface {
	GetByID(id uint) (*models.User, error)
}

// TokenService owns every token balance mutation. Both sides of an operation
// (cached balance on the user row and the append-only ledger entry) are
// written atomically by the repository.
type TokenService struct {
	ledger tokenLedger
	users  userGetter
	logger *zap.Logger
}

func NewTokenService(ledger tokenLedger, users userGetter, logger *zap.Logger) *TokenService {
	return &TokenService{
		ledger: ledger,
		users:  users,
		logger: logger,
	}
}

// Spend debits tokens for a generation or other metered action. Rejected
// before any write when the amount is invalid or the balance is short.
func (s *TokenService) Spend(userID uint, amount int, category, description string, metadata map[string]interface{}) (*models.TokenTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	entry := &models.TokenTransaction{
		UserID:      userID,
		Amount:      -amount,
		Type:        models.TransactionTypeSpend,
		Category:    category,
		Description: description,
		Metadata:    metadata,
	}

	if err := s.ledger.Apply(entry); err != nil {
		return nil, err
	}

	s.logger.Info("tokens spent",
		zap.Uint("user_id", userID),
		zap.Int("amount", amount),
		zap.String("category", category),
	)
	return entry, nil
}

// Add credits tokens. The transaction type tells purchases, bonuses and
// refunds apart in the ledger.
func (s *TokenService) Add(userID uint, amount int, transactionType, category, description string, metadata map[string]interface{}) (*models.TokenTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	entry := &models.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        transactionType,
		Category:    category,
		Description: description,
		Metadata:    metadata,
	}

	if err := s.ledger.Apply(entry); err != nil {
		return nil, err
	}

	s.logger.Info("tokens added",
		zap.Uint("user_id", userID),
		zap.Int("amount", amount),
		zap.String("type", transactionType),
	)
	return entry, nil
}

// Adjust applies a signed admin correction. Negative adjustments still cannot
// take the balance below zero.
func (s *TokenService) Adjust(userID uint, amount int, description string) (*models.TokenTransaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	entry := &models.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeAdminAdjustment,
		Category:    "admin",
		Description: description,
	}

	if err := s.ledger.Apply(entry); err != nil {
		return nil, err
	}

	s.logger.Info("admin token adjustment",
		zap.Uint("user_id", userID),
		zap.Int("amount", amount),
	)
	return entry, nil
}

func (s *TokenService) Balance(userID uint) (int, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.Tokens, nil
}

func (s *TokenService) History(userID uint, page, limit int) ([]models.TokenTransaction, int64, error) {
	return s.ledger.GetUserTransactions(userID, page, limit)
}
