package repository

import (
	"fmt"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByIntentID(paymentIntentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByIntentIDForUser(paymentIntentID string, userID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("payment_intent_id = ? AND user_id = ?", paymentIntentID, userID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// SettleAndCredit flips the payment from pending to succeeded and applies the
// token credit with its purchase ledger entry, all in one transaction. The
// conditional update is the idempotency guard: a concurrent confirm and
// webhook can both call this, only the one that flips the row credits.
func (r *PaymentRepository) SettleAndCredit(paymentIntentID string) (*models.Payment, error) {
	var payment models.Payment

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_intent_id = ?", paymentIntentID).First(&payment).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Payment{}).
			Where("payment_intent_id = ? AND status = ?", paymentIntentID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusSucceeded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPaymentAlreadyProcessed
		}
		payment.Status = models.PaymentStatusSucceeded

		entry := &models.TokenTransaction{
			UserID:      payment.UserID,
			Amount:      payment.Tokens,
			Type:        models.TransactionTypePurchase,
			Category:    "payment",
			PaymentID:   &payment.ID,
			PackageID:   &payment.PackageID,
			Description: fmt.Sprintf("Purchased %d tokens", payment.Tokens),
			Metadata: map[string]interface{}{
				"payment_intent_id": payment.PaymentIntentID,
			},
		}
		return applyLedgerEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkFailed and MarkCancelled only move payments out of pending; terminal
// rows stay as they are.
func (r *PaymentRepository) MarkFailed(paymentIntentID string) (bool, error) {
	return r.transitionFromPending(paymentIntentID, models.PaymentStatusFailed)
}

func (r *PaymentRepository) MarkCancelled(paymentIntentID string) (bool, error) {
	return r.transitionFromPending(paymentIntentID, models.PaymentStatusCancelled)
}

// MarkDisputed also covers already-settled payments, since disputes normally
// arrive after the charge succeeded.
func (r *PaymentRepository) MarkDisputed(paymentIntentID string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("payment_intent_id = ? AND status IN ?", paymentIntentID,
			[]string{models.PaymentStatusPending, models.PaymentStatusSucceeded}).
		Update("status", models.PaymentStatusDisputed)
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) transitionFromPending(paymentIntentID, status string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("payment_intent_id = ? AND status = ?", paymentIntentID, models.PaymentStatusPending).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) GetUserPayments(userID uint, page, limit int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	if err := r.db.Model(&models.Payment{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error
	return payments, total, err
}

// CountSucceededForPackage backs the per-user purchase limit check.
func (r *PaymentRepository) CountSucceededForPackage(userID, packageID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("user_id = ? AND package_id = ? AND status = ?", userID, packageID, models.PaymentStatusSucceeded).
		Count(&count).Error
	return count, err
}

// RevenueCents sums succeeded payment amounts for the admin dashboard.
func (r *PaymentRepository) RevenueCents() (int64, error) {
	var sum *int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSucceeded).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}
