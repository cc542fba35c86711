package service

import (
	"testing"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLedger mirrors the repository's balance rules in memory: the cached
// balance and the entry list always move together and never go negative.
type fakeLedger struct {
	balance int
	entries []*models.TokenTransaction
}

func (f *fakeLedger) Apply(entry *models.TokenTransaction) error {
	newBalance := f.balance + entry.Amount
	if newBalance < 0 {
		return repository.ErrInsufficientTokens
	}
	f.balance = newBalance
	entry.BalanceAfter = newBalance
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedger) GetUserTransactions(userID uint, page, limit int) ([]models.TokenTransaction, int64, error) {
	out := make([]models.TokenTransaction, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

type fakeUserGetter struct {
	GetByIDFn func(id uint) (*models.User, error)
}

func (f *fakeUserGetter) GetByID(id uint) (*models.User, error) {
	return f.GetByIDFn(id)
}

func newTokenService(ledger *fakeLedger) *TokenService {
	users := &fakeUserGetter{
		GetByIDFn: func(id uint) (*models.User, error) {
			return &models.User{ID: id, Tokens: ledger.balance}, nil
		},
	}
	return NewTokenService(ledger, users, zap.NewNop())
}

func TestTokenService_AddAndSpendKeepLedgerConsistent(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTokenService(ledger)

	_, err := svc.Add(1, 50, models.TransactionTypePurchase, "payment", "Purchased 50 tokens", nil)
	require.NoError(t, err)

	entry, err := svc.Spend(1, 11, "generation", "Image generation", nil)
	require.NoError(t, err)
	require.Equal(t, -11, entry.Amount)
	require.Equal(t, 39, entry.BalanceAfter)

	sum := 0
	for _, e := range ledger.entries {
		sum += e.Amount
	}
	require.Equal(t, ledger.balance, sum)
}

func TestTokenService_SpendRejectsOverdraft(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	svc := newTokenService(ledger)

	_, err := svc.Spend(1, 10, "generation", "Image generation", nil)
	require.ErrorIs(t, err, repository.ErrInsufficientTokens)
	require.Equal(t, 5, ledger.balance)
	require.Empty(t, ledger.entries)
}

func TestTokenService_ValidatesInput(t *testing.T) {
	svc := newTokenService(&fakeLedger{balance: 100})

	_, err := svc.Spend(1, 0, "generation", "Image generation", nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Spend(1, -3, "generation", "Image generation", nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Spend(1, 3, "generation", "", nil)
	require.ErrorIs(t, err, ErrDescriptionRequired)

	_, err = svc.Add(1, 0, models.TransactionTypeBonus, "signup", "Signup bonus", nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Adjust(1, 0, "correction")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTokenService_AdjustAllowsNegativeAmounts(t *testing.T) {
	ledger := &fakeLedger{balance: 20}
	svc := newTokenService(ledger)

	entry, err := svc.Adjust(1, -5, "support correction")
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypeAdminAdjustment, entry.Type)
	require.Equal(t, 15, ledger.balance)

	// still cannot take the balance below zero
	_, err = svc.Adjust(1, -100, "bad correction")
	require.ErrorIs(t, err, repository.ErrInsufficientTokens)
	require.Equal(t, 15, ledger.balance)
}
