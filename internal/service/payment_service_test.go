package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	ConfiguredFn          func() bool
	CreatePaymentIntentFn func(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntentFn    func(id string) (*stripe.PaymentIntent, error)
}

func (f *fakeGateway) Configured() bool { return f.ConfiguredFn() }
func (f *fakeGateway) CreatePaymentIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	return f.CreatePaymentIntentFn(amount, currency, metadata)
}
func (f *fakeGateway) GetPaymentIntent(id string) (*stripe.PaymentIntent, error) {
	return f.GetPaymentIntentFn(id)
}

type fakePaymentStore struct {
	CreateFn                   func(payment *models.Payment) error
	GetByIntentIDForUserFn     func(paymentIntentID string, userID uint) (*models.Payment, error)
	SettleAndCreditFn          func(paymentIntentID string) (*models.Payment, error)
	MarkFailedFn               func(paymentIntentID string) (bool, error)
	MarkCancelledFn            func(paymentIntentID string) (bool, error)
	MarkDisputedFn             func(paymentIntentID string) (bool, error)
	GetUserPaymentsFn          func(userID uint, page, limit int) ([]models.Payment, int64, error)
	CountSucceededForPackageFn func(userID, packageID uint) (int64, error)
}

func (f *fakePaymentStore) Create(payment *models.Payment) error { return f.CreateFn(payment) }
func (f *fakePaymentStore) GetByIntentIDForUser(paymentIntentID string, userID uint) (*models.Payment, error) {
	return f.GetByIntentIDForUserFn(paymentIntentID, userID)
}
func (f *fakePaymentStore) SettleAndCredit(paymentIntentID string) (*models.Payment, error) {
	return f.SettleAndCreditFn(paymentIntentID)
}
func (f *fakePaymentStore) MarkFailed(paymentIntentID string) (bool, error) {
	return f.MarkFailedFn(paymentIntentID)
}
func (f *fakePaymentStore) MarkCancelled(paymentIntentID string) (bool, error) {
	return f.MarkCancelledFn(paymentIntentID)
}
func (f *fakePaymentStore) MarkDisputed(paymentIntentID string) (bool, error) {
	return f.MarkDisputedFn(paymentIntentID)
}
func (f *fakePaymentStore) GetUserPayments(userID uint, page, limit int) ([]models.Payment, int64, error) {
	return f.GetUserPaymentsFn(userID, page, limit)
}
func (f *fakePaymentStore) CountSucceededForPackage(userID, packageID uint) (int64, error) {
	return f.CountSucceededForPackageFn(userID, packageID)
}

type fakePackageStore struct {
	GetByIDFn   func(id uint) (*models.TokenPackage, error)
	GetActiveFn func() ([]models.TokenPackage, error)
}

func (f *fakePackageStore) GetByID(id uint) (*models.TokenPackage, error) { return f.GetByIDFn(id) }
func (f *fakePackageStore) GetActive() ([]models.TokenPackage, error)    { return f.GetActiveFn() }

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) NotifyPurchase(userID uint, tokens int, amount int64, currency string) {
	f.calls++
}

func creatorPackage() *models.TokenPackage {
	return &models.TokenPackage{
		ID:                 2,
		Name:               "Creator",
		Tokens:             200,
		BonusTokens:        20,
		Price:              29.99,
		DiscountPercentage: 10,
		Currency:           "usd",
		IsActive:           true,
	}
}

func TestPaymentService_CreatePaymentIntentAppliesDiscount(t *testing.T) {
	var gotAmount int64
	gateway := &fakeGateway{
		ConfiguredFn: func() bool { return true },
		CreatePaymentIntentFn: func(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
			gotAmount = amount
			return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "secret"}, nil
		},
	}
	payments := &fakePaymentStore{
		CreateFn:                   func(payment *models.Payment) error { return nil },
		CountSucceededForPackageFn: func(userID, packageID uint) (int64, error) { return 0, nil },
	}
	packages := &fakePackageStore{
		GetByIDFn: func(id uint) (*models.TokenPackage, error) { return creatorPackage(), nil },
	}

	svc := NewPaymentService(gateway, payments, packages, nil, &fakeNotifier{}, zap.NewNop())

	resp, err := svc.CreatePaymentIntent(1, 2)
	require.NoError(t, err)

	// 29.99 with a 10% discount is 26.991, charged as 2699 cents
	require.Equal(t, int64(2699), gotAmount)
	require.Equal(t, int64(2699), resp.Amount)
	require.Equal(t, 220, resp.Tokens)
	require.Equal(t, "pi_123", resp.PaymentIntentID)
}

func TestPaymentService_CreatePaymentIntentEnforcesPurchaseLimit(t *testing.T) {
	gatewayCalled := false
	gateway := &fakeGateway{
		ConfiguredFn: func() bool { return true },
		CreatePaymentIntentFn: func(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
			gatewayCalled = true
			return &stripe.PaymentIntent{ID: "pi_123"}, nil
		},
	}
	pkg := creatorPackage()
	pkg.MaxPurchases = 1
	payments := &fakePaymentStore{
		CountSucceededForPackageFn: func(userID, packageID uint) (int64, error) { return 1, nil },
	}
	packages := &fakePackageStore{
		GetByIDFn: func(id uint) (*models.TokenPackage, error) { return pkg, nil },
	}

	svc := NewPaymentService(gateway, payments, packages, nil, &fakeNotifier{}, zap.NewNop())

	_, err := svc.CreatePaymentIntent(1, 2)
	require.ErrorIs(t, err, ErrPurchaseLimitReached)
	require.False(t, gatewayCalled)
}

func TestPaymentService_CreatePaymentIntentRejectsUnavailablePackages(t *testing.T) {
	gateway := &fakeGateway{ConfiguredFn: func() bool { return true }}

	inactive := creatorPackage()
	inactive.IsActive = false

	expired := creatorPackage()
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past

	for _, tc := range []struct {
		pkg  *models.TokenPackage
		want error
	}{
		{inactive, ErrPackageInactive},
		{expired, ErrPackageExpired},
	} {
		packages := &fakePackageStore{
			GetByIDFn: func(id uint) (*models.TokenPackage, error) { return tc.pkg, nil },
		}
		svc := NewPaymentService(gateway, &fakePaymentStore{}, packages, nil, &fakeNotifier{}, zap.NewNop())

		_, err := svc.CreatePaymentIntent(1, 2)
		require.ErrorIs(t, err, tc.want)
	}

	packages := &fakePackageStore{
		GetByIDFn: func(id uint) (*models.TokenPackage, error) { return nil, gorm.ErrRecordNotFound },
	}
	svc := NewPaymentService(gateway, &fakePaymentStore{}, packages, nil, &fakeNotifier{}, zap.NewNop())
	_, err := svc.CreatePaymentIntent(1, 2)
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestPaymentService_ConfirmPaymentRequiresSucceededIntent(t *testing.T) {
	gateway := &fakeGateway{
		ConfiguredFn: func() bool { return true },
		GetPaymentIntentFn: func(id string) (*stripe.PaymentIntent, error) {
			return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, nil
		},
	}

	svc := NewPaymentService(gateway, &fakePaymentStore{}, &fakePackageStore{}, nil, &fakeNotifier{}, zap.NewNop())

	_, err := svc.ConfirmPayment(1, "pi_123")
	require.ErrorIs(t, err, ErrPaymentNotSucceeded)
}

func succeededIntentEvent(t *testing.T, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": intentID})
	require.NoError(t, err)
	return &stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestPaymentService_WebhookSettleIsIdempotent(t *testing.T) {
	settles := 0
	notifier := &fakeNotifier{}
	payments := &fakePaymentStore{
		SettleAndCreditFn: func(paymentIntentID string) (*models.Payment, error) {
			settles++
			if settles > 1 {
				return nil, ErrPaymentAlreadyProcessed
			}
			return &models.Payment{
				UserID:          1,
				PaymentIntentID: paymentIntentID,
				Tokens:          220,
				Amount:          2699,
				Currency:        "usd",
				Status:          models.PaymentStatusSucceeded,
			}, nil
		},
	}

	svc := NewPaymentService(&fakeGateway{}, payments, &fakePackageStore{}, nil, notifier, zap.NewNop())

	// first delivery credits, the redelivery is acknowledged without crediting
	require.NoError(t, svc.HandleWebhook(succeededIntentEvent(t, "pi_123")))
	require.NoError(t, svc.HandleWebhook(succeededIntentEvent(t, "pi_123")))

	require.Equal(t, 2, settles)
	require.Equal(t, 1, notifier.calls)
}

func TestPaymentService_WebhookIgnoresUnknownIntents(t *testing.T) {
	payments := &fakePaymentStore{
		SettleAndCreditFn: func(paymentIntentID string) (*models.Payment, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewPaymentService(&fakeGateway{}, payments, &fakePackageStore{}, nil, &fakeNotifier{}, zap.NewNop())
	require.NoError(t, svc.HandleWebhook(succeededIntentEvent(t, "pi_unknown")))
}

func TestPaymentService_WebhookRoutesTerminalEvents(t *testing.T) {
	var failed, cancelled, disputed []string
	payments := &fakePaymentStore{
		MarkFailedFn: func(id string) (bool, error) {
			failed = append(failed, id)
			return true, nil
		},
		MarkCancelledFn: func(id string) (bool, error) {
			cancelled = append(cancelled, id)
			return true, nil
		},
		MarkDisputedFn: func(id string) (bool, error) {
			disputed = append(disputed, id)
			return true, nil
		},
	}

	svc := NewPaymentService(&fakeGateway{}, payments, &fakePackageStore{}, nil, &fakeNotifier{}, zap.NewNop())

	intentRaw, err := json.Marshal(map[string]string{"id": "pi_123"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleWebhook(&stripe.Event{
		Type: "payment_intent.payment_failed",
		Data: &stripe.EventData{Raw: intentRaw},
	}))
	require.NoError(t, svc.HandleWebhook(&stripe.Event{
		Type: "payment_intent.canceled",
		Data: &stripe.EventData{Raw: intentRaw},
	}))

	disputeRaw, err := json.Marshal(map[string]interface{}{
		"id":             "dp_1",
		"payment_intent": map[string]string{"id": "pi_123"},
	})
	require.NoError(t, err)
	require.NoError(t, svc.HandleWebhook(&stripe.Event{
		Type: "charge.dispute.created",
		Data: &stripe.EventData{Raw: disputeRaw},
	}))

	// unrecognized kinds are acknowledged
	require.NoError(t, svc.HandleWebhook(&stripe.Event{
		Type: "customer.created",
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}))

	require.Equal(t, []string{"pi_123"}, failed)
	require.Equal(t, []string{"pi_123"}, cancelled)
	require.Equal(t, []string{"pi_123"}, disputed)
}

func TestPaymentService_RequiresConfiguredGateway(t *testing.T) {
	gateway := &fakeGateway{ConfiguredFn: func() bool { return false }}
	svc := NewPaymentService(gateway, &fakePaymentStore{}, &fakePackageStore{}, nil, &fakeNotifier{}, zap.NewNop())

	_, err := svc.CreatePaymentIntent(1, 2)
	require.ErrorIs(t, err, ErrPaymentsNotConfigured)

	_, err = svc.ConfirmPayment(1, "pi_123")
	require.ErrorIs(t, err, ErrPaymentsNotConfigured)
}
