package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/repository"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPaymentsNotConfigured   = errors.New("payment processor is not configured")
	ErrPackageNotFound         = errors.New("package not found")
	ErrPackageInactive         = errors.New("package is not active")
	ErrPackageExpired          = errors.New("package has expired")
	ErrPurchaseLimitReached    = errors.New("purchase limit for this package reached")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentNotSucceeded     = errors.New("payment has not succeeded")
	ErrPaymentAlreadyProcessed = repository.ErrPaymentAlreadyProcessed
)

type paymentGateway interface {
	Configured() bool
	CreatePaymentIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntent(id string) (*stripe.PaymentIntent, error)
}

type paymentStore interface {
	Create(payment *models.Payment) error
	GetByIntentIDForUser(paymentIntentID string, userID uint) (*models.Payment, error)
	SettleAndCredit(paymentIntentID string) (*models.Payment, error)
	MarkFailed(paymentIntentID string) (bool, error)
	MarkCancelled(paymentIntentID string) (bool, error)
	MarkDisputed(paymentIntentID string) (bool, error)
	GetUserPayments(userID uint, page, limit int) ([]models.Payment, int64, error)
	CountSucceededForPackage(userID, packageID uint) (int64, error)
}

type packageStore interface {
	GetByID(id uint) (*models.TokenPackage, error)
	GetActive() ([]models.TokenPackage, error)
}

type purchaseNotifier interface {
	NotifyPurchase(userID uint, tokens int, amount int64, currency string)
}

type PaymentService struct {
	gateway  paymentGateway
	payments paymentStore
	packages packageStore
	users    userGetter
	notifier purchaseNotifier
	logger   *zap.Logger
}

func NewPaymentService(gateway paymentGateway, payments paymentStore, packages packageStore, users userGetter, notifier purchaseNotifier, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		payments: payments,
		packages: packages,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// CreatePaymentIntent validates the package, opens a payment intent with the
// processor and records a pending Payment keyed by the intent id. The client
// completes the charge out-of-band with the returned client secret.
func (s *PaymentService) CreatePaymentIntent(userID, packageID uint) (*models.PaymentIntentResponse, error) {
	if !s.gateway.Configured() {
		return nil, ErrPaymentsNotConfigured
	}

	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	if !pkg.IsActive {
		return nil, ErrPackageInactive
	}
	if pkg.IsExpired(time.Now()) {
		return nil, ErrPackageExpired
	}

	if pkg.MaxPurchases > 0 {
		count, err := s.payments.CountSucceededForPackage(userID, packageID)
		if err != nil {
			return nil, err
		}
		if count >= int64(pkg.MaxPurchases) {
			return nil, ErrPurchaseLimitReached
		}
	}

	amount := int64(math.Round(pkg.FinalPrice() * 100))
	tokens := pkg.TotalTokens()

	intent, err := s.gateway.CreatePaymentIntent(amount, pkg.Currency, map[string]string{
		"user_id":    fmt.Sprintf("%d", userID),
		"package_id": fmt.Sprintf("%d", packageID),
		"tokens":     fmt.Sprintf("%d", tokens),
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:          userID,
		PackageID:       packageID,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        pkg.Currency,
		Tokens:          tokens,
		Status:          models.PaymentStatusPending,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment intent created",
		zap.Uint("user_id", userID),
		zap.Uint("package_id", packageID),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", amount),
	)

	return &models.PaymentIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          amount,
		Currency:        pkg.Currency,
		Tokens:          tokens,
	}, nil
}

// ConfirmPayment is the client-driven settlement path. The intent status is
// re-fetched from the processor rather than trusted from the request.
func (s *PaymentService) ConfirmPayment(userID uint, paymentIntentID string) (*models.Payment, error) {
	if !s.gateway.Configured() {
		return nil, ErrPaymentsNotConfigured
	}

	intent, err := s.gateway.GetPaymentIntent(paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, ErrPaymentNotSucceeded
	}

	if _, err := s.payments.GetByIntentIDForUser(paymentIntentID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return s.settle(paymentIntentID)
}

// settle is the single credit path shared by the confirm endpoint and the
// webhook. Idempotency lives in the repository's guarded status flip.
func (s *PaymentService) settle(paymentIntentID string) (*models.Payment, error) {
	payment, err := s.payments.SettleAndCredit(paymentIntentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment settled",
		zap.String("payment_intent_id", paymentIntentID),
		zap.Uint("user_id", payment.UserID),
		zap.Int("tokens", payment.Tokens),
	)

	if s.notifier != nil {
		s.notifier.NotifyPurchase(payment.UserID, payment.Tokens, payment.Amount, payment.Currency)
	}

	return payment, nil
}

// HandleWebhook reconciles processor-driven events against local payments.
// The event is already signature-verified by the handler. Unrecognized kinds
// are acknowledged so the processor stops retrying.
func (s *PaymentService) HandleWebhook(event *stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		intent, err := parseIntent(event)
		if err != nil {
			return err
		}
		_, err = s.settle(intent.ID)
		if errors.Is(err, ErrPaymentAlreadyProcessed) || errors.Is(err, gorm.ErrRecordNotFound) {
			// already credited via the confirm path, or an intent this
			// system never created
			s.logger.Info("webhook settle skipped",
				zap.String("payment_intent_id", intent.ID),
				zap.Error(err),
			)
			return nil
		}
		return err

	case "payment_intent.payment_failed":
		intent, err := parseIntent(event)
		if err != nil {
			return err
		}
		_, err = s.payments.MarkFailed(intent.ID)
		return err

	case "payment_intent.canceled":
		intent, err := parseIntent(event)
		if err != nil {
			return err
		}
		_, err = s.payments.MarkCancelled(intent.ID)
		return err

	case "charge.dispute.created":
		var dispute stripe.Dispute
		if err := unmarshalEvent(event, &dispute); err != nil {
			return err
		}
		if dispute.PaymentIntent == nil {
			return nil
		}
		// bookkeeping only: previously granted tokens are not clawed back
		_, err := s.payments.MarkDisputed(dispute.PaymentIntent.ID)
		return err

	default:
		s.logger.Info("ignoring unhandled webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *PaymentService) GetTokenPackages() ([]models.TokenPackage, error) {
	return s.packages.GetActive()
}

func (s *PaymentService) GetPaymentHistory(userID uint, page, limit int) ([]models.Payment, int64, error) {
	return s.payments.GetUserPayments(userID, page, limit)
}

func parseIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := unmarshalEvent(event, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func unmarshalEvent(event *stripe.Event, dst interface{}) error {
	if err := json.Unmarshal(event.Data.Raw, dst); err != nil {
		return fmt.Errorf("parse webhook payload: %w", err)
	}
	return nil
}
